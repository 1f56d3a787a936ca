package config

import "time"

// LauncherConfig is the top-level configuration structure for the launcher.
type LauncherConfig struct {
	// ModulesFile is the YAML file declaring the modules to run.
	ModulesFile string `yaml:"modulesFile"`

	// BasePort is the port of the first module in name order.
	BasePort int `yaml:"basePort"`

	// DataDir holds one $<service> directory per service.
	DataDir string `yaml:"dataDir"`

	Logs       LogsConfig       `yaml:"logs"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Broker     ServiceConfig    `yaml:"broker"`
	Proxy      ServiceConfig    `yaml:"proxy"`
	Database   ServiceConfig    `yaml:"database"`
	Status     StatusConfig     `yaml:"status"`
}

// LogsConfig locates the log files and the ambient log options.
type LogsConfig struct {
	// Directory receives one <service>.log file per service.
	Directory string `yaml:"directory"`

	// OptionsFile holds the log options handed to modules. It is read on
	// every start; a missing file means defaults.
	OptionsFile string `yaml:"optionsFile"`
}

// TimeoutsConfig bounds supervisor calls and module stop functions.
type TimeoutsConfig struct {
	Start time.Duration `yaml:"start"`
	Stop  time.Duration `yaml:"stop"`
}

// SupervisorConfig configures the process supervisor.
type SupervisorConfig struct {
	// GracePeriod is how long a process may take to exit after SIGTERM
	// before it is killed.
	GracePeriod time.Duration `yaml:"gracePeriod"`
}

// ServiceConfig overrides the executable and port of a bundled service.
type ServiceConfig struct {
	Executable string `yaml:"executable,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

// StatusConfig configures the status HTTP API.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}
