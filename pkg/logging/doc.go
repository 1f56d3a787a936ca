// Package logging provides the process-wide structured logger for the launcher.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name, so that output from the orchestrator, the service adapters and the
// supervisor can be told apart in a single stream.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Orchestrator", "Starting %d modules", len(mods))
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Warn("Proxy", "No routes registered")
//	logging.Error("Supervisor", err, "Failed to stop %s", name)
//
// Init selects between the text and JSON slog handlers. Levels can be read
// from configuration with ParseLevel.
//
// Per-service output (the log files the supervised binaries write into) is
// not handled here; see internal/logs.
package logging
