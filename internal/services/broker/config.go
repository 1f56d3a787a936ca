package broker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Node and user names of the broker's static configuration.
const (
	NodeDefault       = "default"
	NodeProtected     = "protected"
	NodeConfiguration = "configuration"

	UserProtected     = "protected"
	UserConfiguration = "configuration"

	// TopicModules is the topic the sealed module configuration is
	// published on.
	TopicModules = "config:modules"
)

type listenerConfig struct {
	Type string `json:"type"`
	Port int    `json:"port"`
}

type serverConfig struct {
	Listen []listenerConfig           `json:"listen"`
	Nodes  []string                   `json:"nodes"`
	Users  map[string]string          `json:"users"`
	Rights map[string]map[string]bool `json:"rights"`
}

func renderConfig(port int, protectedPassword, configurationPassword string) ([]byte, error) {
	cfg := serverConfig{
		Listen: []listenerConfig{{Type: "websocket", Port: port}},
		Nodes:  []string{NodeDefault, NodeProtected, NodeConfiguration},
		Users: map[string]string{
			UserProtected:     protectedPassword,
			UserConfiguration: configurationPassword,
		},
		Rights: map[string]map[string]bool{
			"":                {"subscribe": true, "publish": false},
			UserProtected:     {"subscribe": true, "publish": true},
			UserConfiguration: {"subscribe": true, "publish": true},
		},
	}
	return json.MarshalIndent(cfg, "", "  ")
}

func writeConfig(path string, port int, protectedPassword, configurationPassword string) error {
	data, err := renderConfig(port, protectedPassword, configurationPassword)
	if err != nil {
		return fmt.Errorf("render broker config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create broker data dir: %w", err)
	}
	// The file holds both passwords.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write broker config: %w", err)
	}
	return nil
}
