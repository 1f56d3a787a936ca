package config

import (
	"time"

	"launcher/internal/ports"
)

const (
	DefaultModulesFile    = "modules.yml"
	DefaultDataDir        = "./data"
	DefaultLogDir         = "./logs"
	DefaultLogOptionsFile = "logs.yaml"
	DefaultStartTimeout   = 30 * time.Second
	DefaultStopTimeout    = 10 * time.Second
	DefaultGracePeriod    = 5 * time.Second
	DefaultStatusAddress  = "localhost:2827"
)

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() LauncherConfig {
	return LauncherConfig{
		ModulesFile: DefaultModulesFile,
		BasePort:    ports.DefaultBasePort,
		DataDir:     DefaultDataDir,
		Logs: LogsConfig{
			Directory:   DefaultLogDir,
			OptionsFile: DefaultLogOptionsFile,
		},
		Timeouts: TimeoutsConfig{
			Start: DefaultStartTimeout,
			Stop:  DefaultStopTimeout,
		},
		Supervisor: SupervisorConfig{
			GracePeriod: DefaultGracePeriod,
		},
		Status: StatusConfig{
			Enabled: true,
			Address: DefaultStatusAddress,
		},
	}
}
