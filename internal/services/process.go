package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"launcher/internal/supervisor"
	"launcher/pkg/logging"
)

// Timeouts bounds every call made to the supervisor.
// A zero value disables the corresponding bound.
type Timeouts struct {
	Start time.Duration
	Stop  time.Duration
}

// TimeoutError reports a supervisor call that did not complete in time.
type TimeoutError struct {
	Service   string
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service %s: %s timed out after %s", e.Service, e.Operation, e.Timeout)
}

// IsTimeout reports whether err, or any error it wraps, is a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// DataDir returns the data directory of the named service below root.
func DataDir(root, name string) string {
	return filepath.Join(root, "$"+name)
}

// Definition describes a process-backed service.
type Definition struct {
	Name       string
	Type       ServiceType
	Executable string
	Arguments  []string
	WorkDir    string
	Env        map[string]string
	LogStream  io.Writer

	// PreStart runs before the process is spawned, usually to render
	// configuration files the executable reads on startup.
	PreStart func(ctx context.Context) error
}

// ProcessService runs a Definition through a supervisor.
type ProcessService struct {
	*BaseService

	def        Definition
	supervisor supervisor.Supervisor
	timeouts   Timeouts

	// opMu serializes Start and Stop
	opMu   sync.Mutex
	handle supervisor.Handle
}

// NewProcessService creates a stopped service for def.
func NewProcessService(def Definition, sup supervisor.Supervisor, timeouts Timeouts) *ProcessService {
	serviceType := def.Type
	if serviceType == "" {
		serviceType = TypeModule
	}
	return &ProcessService{
		BaseService: NewBaseService(def.Name, serviceType),
		def:         def,
		supervisor:  sup,
		timeouts:    timeouts,
	}
}

// Definition returns the definition the service was created from.
func (s *ProcessService) Definition() Definition {
	return s.def
}

// Start spawns the process. Starting a service that is already starting
// or running is a no-op.
func (s *ProcessService) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if state := s.GetState(); state == StateStarting || state == StateRunning {
		logging.Debug("Services", "Service %s already %s", s.GetName(), state)
		return nil
	}

	s.UpdateState(StateStarting, nil)

	if s.def.PreStart != nil {
		if err := s.def.PreStart(ctx); err != nil {
			err = fmt.Errorf("prepare %s: %w", s.GetName(), err)
			s.UpdateState(StateFailed, err)
			return err
		}
	}

	spec := supervisor.Spec{
		ID:         s.def.Name,
		Executable: s.def.Executable,
		Arguments:  s.def.Arguments,
		WorkDir:    s.def.WorkDir,
		Env:        s.def.Env,
		LogStream:  s.def.LogStream,
	}

	handle, err := bounded(ctx, s.GetName(), "start", s.timeouts.Start,
		func(callCtx context.Context) (supervisor.Handle, error) {
			return s.supervisor.StartService(callCtx, spec)
		},
		s.stopLate,
	)
	if err != nil {
		s.UpdateState(StateFailed, err)
		return err
	}

	s.handle = handle
	s.UpdateState(StateRunning, nil)
	logging.Info("Services", "Started %s", s.GetName())
	return nil
}

// Stop terminates the process. Stopping a service without a running
// process is a no-op.
func (s *ProcessService) Stop(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.handle == "" {
		if s.GetState() != StateFailed {
			s.UpdateState(StateStopped, nil)
		}
		return nil
	}

	handle := s.handle
	s.UpdateState(StateStopping, nil)

	_, err := bounded(ctx, s.GetName(), "stop", s.timeouts.Stop,
		func(callCtx context.Context) (struct{}, error) {
			return struct{}{}, s.supervisor.StopService(callCtx, handle)
		},
		nil,
	)
	s.handle = ""
	if err != nil {
		s.UpdateState(StateFailed, err)
		return err
	}

	s.UpdateState(StateStopped, nil)
	logging.Info("Services", "Stopped %s", s.GetName())
	return nil
}

// Restart stops and starts the service.
func (s *ProcessService) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

// stopLate releases a handle that arrived after the start call timed out.
func (s *ProcessService) stopLate(handle supervisor.Handle) {
	ctx := context.Background()
	if s.timeouts.Stop > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.Stop)
		defer cancel()
	}
	if err := s.supervisor.StopService(ctx, handle); err != nil {
		logging.Warn("Services", "Failed to stop late start of %s: %v", s.GetName(), err)
	}
}

type callResult[T any] struct {
	val T
	err error
}

// bounded runs fn with a deadline. When the deadline fires first, fn keeps
// running in the background and a successful late result is handed to
// onLate.
func bounded[T any](ctx context.Context, name, op string, timeout time.Duration, fn func(context.Context) (T, error), onLate func(T)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	done := make(chan callResult[T], 1)
	go func() {
		val, err := fn(callCtx)
		done <- callResult[T]{val: val, err: err}
	}()

	select {
	case res := <-done:
		cancel()
		return res.val, res.err
	case <-callCtx.Done():
		cancel()
		go func() {
			res := <-done
			if res.err == nil && onLate != nil {
				onLate(res.val)
			}
		}()

		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &TimeoutError{Service: name, Operation: op, Timeout: timeout}
	}
}

// Factory creates process services that share one supervisor and one set
// of timeouts.
type Factory struct {
	Supervisor supervisor.Supervisor
	Timeouts   Timeouts
}

// NewFactory creates a factory.
func NewFactory(sup supervisor.Supervisor, timeouts Timeouts) *Factory {
	return &Factory{Supervisor: sup, Timeouts: timeouts}
}

// Create returns a stopped service for def.
func (f *Factory) Create(def Definition) Service {
	return NewProcessService(def, f.Supervisor, f.Timeouts)
}
