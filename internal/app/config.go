package app

import (
	"launcher/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the log options file.
	Debug bool

	// Silent discards console output. Log files are still written.
	Silent bool

	// Watch restarts the launcher when the modules file or the log options
	// file changes.
	Watch bool

	// ConfigPath is the directory holding config.yaml. Empty means the
	// default user config directory.
	ConfigPath string

	// LauncherConfig is loaded by NewApplication when nil.
	LauncherConfig *config.LauncherConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent, watch bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		Watch:      watch,
		ConfigPath: configPath,
	}
}
