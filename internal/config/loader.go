package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"launcher/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/launcher"
	configFileName = "config.yaml"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/launcher.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}

	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(configPath string) (LauncherConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return LauncherConfig{}, NewConfigurationError(configFilePath, "io", err.Error())
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return LauncherConfig{}, NewConfigurationErrorWithDetails(configFilePath, "parse", "malformed YAML", err.Error(),
			[]string{"Check the indentation of " + configFileName, "Durations are written like 30s or 1m"})
	}

	if err := config.Validate(); err != nil {
		return LauncherConfig{}, NewConfigurationErrorWithDetails(configFilePath, "validation", "invalid configuration", err.Error(), nil)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// Resolve makes the file and directory settings absolute relative to baseDir.
func (c LauncherConfig) Resolve(baseDir string) LauncherConfig {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	c.ModulesFile = abs(c.ModulesFile)
	c.DataDir = abs(c.DataDir)
	c.Logs.Directory = abs(c.Logs.Directory)
	c.Logs.OptionsFile = abs(c.Logs.OptionsFile)
	return c
}
