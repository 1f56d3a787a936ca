// Package app wires the launcher together and runs it.
//
// NewApplication loads config.yaml, sets up logging and builds every
// component: the process supervisor, the broker, proxy and database
// services, the orchestrator, the metrics collector, the status API and,
// with --watch, the file watcher. Nothing runs until Run is called.
//
// Run starts the status API and the orchestrator, reports readiness to
// systemd and then waits:
//
//   - SIGINT or SIGTERM closes the orchestrator and returns
//   - SIGHUP restarts the orchestrator
//   - an edit to the modules file or the log options file restarts the
//     orchestrator when watching
//
// Log output goes to the console and to <logs>/main.log; every service
// writes to its own <logs>/<service>.log.
package app
