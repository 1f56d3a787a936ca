package app

import (
	"context"
	"fmt"
	"io"

	"launcher/internal/logs"
	"launcher/internal/metrics"
	"launcher/internal/modules"
	"launcher/internal/orchestrator"
	"launcher/internal/secrets"
	"launcher/internal/services"
	"launcher/internal/services/broker"
	"launcher/internal/services/database"
	"launcher/internal/services/proxy"
	"launcher/internal/statusapi"
	"launcher/internal/supervisor"
	"launcher/internal/watcher"
	"launcher/pkg/logging"
)

// Services holds every component built at bootstrap.
type Services struct {
	// Orchestrator starts and stops the broker, the database, the modules
	// and the proxy.
	Orchestrator *orchestrator.Orchestrator

	// Status serves the status API. Nil when disabled.
	Status *statusapi.Server

	// StatusAddress is where Status listens.
	StatusAddress string

	// Watcher restarts the orchestrator on configuration edits. Nil
	// unless watching was requested.
	Watcher *watcher.Watcher

	// Metrics collects lifecycle and HTTP metrics.
	Metrics *metrics.Collector

	// Streams owns the per-service log files.
	Streams *logs.Streams

	ready *readiness
}

// InitializeServices builds the supervisor, the three bundled services,
// the orchestrator and the optional status API and watcher. Nothing is
// started.
func InitializeServices(cfg *Config) (*Services, error) {
	if cfg.LauncherConfig == nil {
		return nil, fmt.Errorf("launcher configuration is required")
	}
	lc := cfg.LauncherConfig

	streams := logs.NewStreams(lc.Logs.Directory)
	sup := supervisor.NewProcessSupervisor(lc.Supervisor.GracePeriod)
	timeouts := services.Timeouts{Start: lc.Timeouts.Start, Stop: lc.Timeouts.Stop}

	// The broker needs the passwords in its configuration file, so the
	// secrets exist before the orchestrator does.
	set, err := secrets.NewSet()
	if err != nil {
		return nil, err
	}

	mhub := broker.New(broker.Options{
		Executable:            lc.Broker.Executable,
		DataDir:               lc.DataDir,
		Port:                  lc.Broker.Port,
		ProtectedPassword:     set.ProtectedPassword(),
		ConfigurationPassword: set.Secret(),
		LogStream:             logStream(streams, broker.ServiceName),
	}, sup, timeouts)

	caddy := proxy.New(proxy.Options{
		Executable: lc.Proxy.Executable,
		DataDir:    lc.DataDir,
		Port:       lc.Proxy.Port,
		LogStream:  logStream(streams, proxy.ServiceName),
	}, sup, timeouts)

	mongo := database.New(database.Options{
		Executable: lc.Database.Executable,
		DataDir:    lc.DataDir,
		Port:       lc.Database.Port,
		LogStream:  logStream(streams, database.ServiceName),
	}, sup, timeouts)

	collector := metrics.NewCollector("")

	optionsFile := lc.Logs.OptionsFile
	orch, err := orchestrator.New(orchestrator.Config{
		Modules:  modules.NewFileSet(lc.ModulesFile),
		Broker:   mhub,
		Proxy:    caddy,
		Database: mongo,
		Services: services.NewFactory(sup, timeouts),
		BasePort: lc.BasePort,
		LoadLogOptions: func() (logs.Options, error) {
			return logs.LoadOptions(optionsFile)
		},
		LogStreams:  streams,
		StopTimeout: lc.Timeouts.Stop,
		Metrics:     collector,
		Secrets:     set,
	})
	if err != nil {
		return nil, err
	}

	svcs := &Services{
		Orchestrator: orch,
		Metrics:      collector,
		Streams:      streams,
		ready:        &readiness{},
	}

	if lc.Status.Enabled {
		svcs.Status = statusapi.New(orch, collector)
		svcs.StatusAddress = lc.Status.Address
	}

	if cfg.Watch {
		files := []string{lc.ModulesFile}
		if optionsFile != "" {
			files = append(files, optionsFile)
		}
		w, err := watcher.New(watcher.Config{
			Files:    files,
			OnChange: func() { restartOnChange(orch, svcs.ready) },
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		svcs.Watcher = w
	}

	return svcs, nil
}

func restartOnChange(lc lifecycle, ready *readiness) {
	logging.Info("Services", "Configuration changed, restarting")
	err := lc.Restart(context.Background())
	if err != nil {
		logging.Error("Services", err, "Restart after configuration change failed")
	}
	ready.report(err)
}

func logStream(streams *logs.Streams, name string) io.Writer {
	w, err := streams.Create(name)
	if err != nil {
		logging.Warn("Services", "No log stream for %s: %v", name, err)
		return nil
	}
	return w
}
