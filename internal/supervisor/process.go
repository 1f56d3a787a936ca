package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"launcher/pkg/logging"
)

const supervisorSubsystem = "Supervisor"

// DefaultGracePeriod is how long StopService waits after SIGTERM before
// sending SIGKILL to the process group.
const DefaultGracePeriod = 5 * time.Second

// execCommand is a variable to allow mocking in tests
var execCommand = exec.Command

// process tracks one supervised child.
type process struct {
	id   string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// ProcessSupervisor runs services as child processes of the launcher. Each
// child gets its own process group so that stopping it also stops anything
// it spawned.
type ProcessSupervisor struct {
	mu          sync.Mutex
	processes   map[Handle]*process
	gracePeriod time.Duration
}

// NewProcessSupervisor creates a supervisor. A zero grace period selects
// DefaultGracePeriod.
func NewProcessSupervisor(gracePeriod time.Duration) *ProcessSupervisor {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &ProcessSupervisor{
		processes:   make(map[Handle]*process),
		gracePeriod: gracePeriod,
	}
}

// StartService implements Supervisor.
func (s *ProcessSupervisor) StartService(ctx context.Context, spec Spec) (Handle, error) {
	if spec.Executable == "" {
		return "", fmt.Errorf("service %s has no executable", spec.ID)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cmd := execCommand(spec.Executable, spec.Arguments...)
	cmd.Dir = spec.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var out io.Writer = io.Discard
	if spec.LogStream != nil {
		out = spec.LogStream
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s (%s): %w", spec.ID, spec.Executable, err)
	}

	handle := Handle(uuid.NewString())
	p := &process{id: spec.ID, cmd: cmd, done: make(chan struct{})}

	s.mu.Lock()
	s.processes[handle] = p
	s.mu.Unlock()

	go func() {
		p.err = cmd.Wait()
		close(p.done)
		if p.err != nil {
			logging.Warn(supervisorSubsystem, "Service %s (PID %d) exited: %v", p.id, cmd.Process.Pid, p.err)
		} else {
			logging.Info(supervisorSubsystem, "Service %s (PID %d) exited", p.id, cmd.Process.Pid)
		}
	}()

	logging.Info(supervisorSubsystem, "Started %s (PID %d) as %s", spec.ID, cmd.Process.Pid, handle)
	return handle, nil
}

// StopService implements Supervisor. The process group receives SIGTERM,
// then SIGKILL if it has not exited after the grace period or when ctx ends.
func (s *ProcessSupervisor) StopService(ctx context.Context, handle Handle) error {
	s.mu.Lock()
	p, ok := s.processes[handle]
	if ok {
		delete(s.processes, handle)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	select {
	case <-p.done:
		logging.Debug(supervisorSubsystem, "Service %s already exited before stop", p.id)
		return nil
	default:
	}

	pid := p.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		logging.Warn(supervisorSubsystem, "Failed to send SIGTERM to %s (PID %d): %v", p.id, pid, err)
	}

	timer := time.NewTimer(s.gracePeriod)
	defer timer.Stop()

	select {
	case <-p.done:
		logging.Info(supervisorSubsystem, "Stopped %s (PID %d)", p.id, pid)
		return nil
	case <-timer.C:
		logging.Warn(supervisorSubsystem, "Service %s (PID %d) ignored SIGTERM, killing", p.id, pid)
	case <-ctx.Done():
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("failed to kill %s (PID %d): %w", p.id, pid, err)
	}
	<-p.done
	return nil
}

// Running returns the number of processes still tracked.
func (s *ProcessSupervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processes)
}
