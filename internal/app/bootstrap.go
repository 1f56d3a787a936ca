package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"launcher/internal/config"
	"launcher/internal/logs"
	"launcher/pkg/logging"
)

// Application bootstraps and runs the launcher.
//
// Initialization has two phases:
//  1. NewApplication loads the configuration, sets up logging and builds
//     every service without starting anything.
//  2. Run starts the orchestrator and blocks until a shutdown signal.
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, true, "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance.
//
// Configuration is read from cfg.ConfigPath, or from ~/.config/launcher
// when it is empty. Relative paths in the configuration are resolved
// against the working directory.
func NewApplication(cfg *Config) (*Application, error) {
	var console io.Writer = os.Stdout
	if cfg.Silent {
		console = io.Discard
	}
	logging.InitForCLI(consoleLevel(cfg, logging.LevelInfo), console)

	if cfg.LauncherConfig == nil {
		launcherCfg, err := loadLauncherConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load launcher configuration")
			return nil, err
		}
		cfg.LauncherConfig = &launcherCfg
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// From here on the launcher's own log also goes to the main stream.
	opts, err := logs.LoadOptions(cfg.LauncherConfig.Logs.OptionsFile)
	if err != nil {
		logging.Warn("Bootstrap", "Ignoring log options: %v", err)
		opts = logs.DefaultOptions()
	}
	level, _ := logging.ParseLevel(opts.Level)
	output := console
	if main, err := services.Streams.Create(logs.MainStream); err != nil {
		logging.Warn("Bootstrap", "No main log stream: %v", err)
	} else {
		output = io.MultiWriter(console, main)
	}
	logging.Init(consoleLevel(cfg, level), output, opts.Format)

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run starts the orchestrator and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM. SIGHUP restarts the orchestrator.
func (a *Application) Run(ctx context.Context) error {
	return runOrchestrator(ctx, a.config, a.services)
}

// Services returns the services built by NewApplication.
func (a *Application) Services() *Services {
	return a.services
}

func loadLauncherConfig(configPath string) (config.LauncherConfig, error) {
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return config.LauncherConfig{}, err
		}
		configPath = defaultPath
	}

	launcherCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.LauncherConfig{}, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return config.LauncherConfig{}, fmt.Errorf("determine working directory: %w", err)
	}
	return launcherCfg.Resolve(wd), nil
}

func consoleLevel(cfg *Config, level logging.LogLevel) logging.LogLevel {
	if cfg.Debug {
		return logging.LevelDebug
	}
	return level
}
