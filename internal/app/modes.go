package app

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"launcher/pkg/logging"
)

// shutdownTimeout bounds the final Close. Individual stop functions are
// bounded separately by the stop timeout.
const shutdownTimeout = 2 * time.Minute

// lifecycle is the part of the orchestrator the run loop drives.
type lifecycle interface {
	Start(ctx context.Context) error
	Close(ctx context.Context) error
	Restart(ctx context.Context) error
}

// sdNotify is swapped in tests.
var sdNotify = daemon.SdNotify

// readiness reports start outcomes to systemd. READY=1 goes out once, on
// the first successful start; every outcome updates the STATUS line.
type readiness struct {
	once sync.Once
}

func (r *readiness) report(err error) {
	if r == nil {
		return
	}
	if err != nil {
		notify("STATUS=Start failed: " + strings.ReplaceAll(err.Error(), "\n", "; "))
		return
	}
	r.once.Do(func() { notify(daemon.SdNotifyReady) })
	notify("STATUS=Running")
}

// runOrchestrator runs the launcher until a shutdown signal.
//
// Behavior:
//   - Starts the status API, then the orchestrator
//   - Reports READY=1 to systemd once a start succeeds
//   - SIGHUP restarts the orchestrator
//   - SIGINT and SIGTERM close everything and return
//
// A failed start ends the run unless the watcher is active, in which case
// the launcher waits for the configuration to be fixed.
func runOrchestrator(ctx context.Context, config *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	defer func() {
		if err := services.Streams.Close(); err != nil {
			logging.Warn("CLI", "Closing log streams: %v", err)
		}
	}()

	if services.Status != nil {
		if err := services.Status.Start(services.StatusAddress); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			services.Status.Shutdown(shutdownCtx)
		}()
	}

	if services.Watcher != nil {
		if err := services.Watcher.Start(); err != nil {
			return err
		}
		defer services.Watcher.Stop()
	}

	return runLoop(ctx, services.Orchestrator, services.ready, services.Watcher != nil, hup)
}

func runLoop(ctx context.Context, lc lifecycle, ready *readiness, keepOnFailure bool, hup <-chan os.Signal) error {
	logging.Info("CLI", "--- Starting services ---")
	err := lc.Start(ctx)
	ready.report(err)
	if err != nil {
		logging.Error("CLI", err, "Failed to start")
		if !keepOnFailure {
			return err
		}
		logging.Info("CLI", "Waiting for configuration changes")
	} else {
		logging.Info("CLI", "Services started. Press Ctrl+C to stop all services and exit.")
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("CLI", "--- Shutting down services ---")
			notify(daemon.SdNotifyStopping)

			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := lc.Close(closeCtx); err != nil {
				logging.Error("CLI", err, "Shutdown finished with errors")
				return err
			}
			return nil

		case <-hup:
			logging.Info("CLI", "SIGHUP received, restarting")
			err := lc.Restart(ctx)
			if err != nil {
				logging.Error("CLI", err, "Restart failed")
			}
			ready.report(err)
		}
	}
}

func notify(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		logging.Warn("CLI", "systemd notification %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("CLI", "Notified systemd: %s", state)
	}
}
