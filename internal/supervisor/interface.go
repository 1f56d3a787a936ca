package supervisor

import (
	"context"
	"errors"
	"io"
)

// ErrUnknownHandle is returned by StopService for handles the supervisor
// did not issue or has already released.
var ErrUnknownHandle = errors.New("unknown service handle")

// Handle identifies a running service. It is opaque to callers.
type Handle string

// Spec describes an executable to run under supervision.
type Spec struct {
	// ID names the service in logs; it does not need to be unique.
	ID string

	// Executable is the path of the binary to run.
	Executable string

	// Arguments are passed to the executable verbatim.
	Arguments []string

	// WorkDir is the working directory. Empty means the launcher's own.
	WorkDir string

	// Env holds extra environment variables on top of the inherited ones.
	Env map[string]string

	// LogStream receives the combined stdout and stderr of the process.
	// Nil discards the output.
	LogStream io.Writer
}

// Supervisor starts and stops external services. The orchestrator and the
// service adapters never spawn processes themselves; they go through this
// interface so that the runtime can be swapped (or faked in tests).
type Supervisor interface {
	// StartService spawns the executable described by spec and returns a
	// handle once the process is running.
	StartService(ctx context.Context, spec Spec) (Handle, error)

	// StopService terminates the service identified by handle and waits for
	// it to exit.
	StopService(ctx context.Context, handle Handle) error
}
