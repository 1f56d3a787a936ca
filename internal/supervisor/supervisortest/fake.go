// Package supervisortest provides an in-memory supervisor for tests.
package supervisortest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"launcher/internal/supervisor"
)

// Fake records every call and never spawns a process. StartHook and
// StopHook, when set, run before the call is recorded and may block or
// fail it.
type Fake struct {
	StartHook func(ctx context.Context, spec supervisor.Spec) error
	StopHook  func(ctx context.Context, id string) error

	mu      sync.Mutex
	next    int
	running map[supervisor.Handle]supervisor.Spec
	started []supervisor.Spec
	stopped []string
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{running: make(map[supervisor.Handle]supervisor.Spec)}
}

func (f *Fake) StartService(ctx context.Context, spec supervisor.Spec) (supervisor.Handle, error) {
	if f.StartHook != nil {
		if err := f.StartHook(ctx, spec); err != nil {
			return "", err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running == nil {
		f.running = make(map[supervisor.Handle]supervisor.Spec)
	}
	f.next++
	handle := supervisor.Handle(fmt.Sprintf("%s-%d", spec.ID, f.next))
	f.running[handle] = spec
	f.started = append(f.started, spec)
	return handle, nil
}

func (f *Fake) StopService(ctx context.Context, handle supervisor.Handle) error {
	f.mu.Lock()
	spec, ok := f.running[handle]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("stop %s: %w", handle, supervisor.ErrUnknownHandle)
	}

	if f.StopHook != nil {
		if err := f.StopHook(ctx, spec.ID); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, handle)
	f.stopped = append(f.stopped, spec.ID)
	return nil
}

// Started returns the specs of every successful start, in call order.
func (f *Fake) Started() []supervisor.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]supervisor.Spec(nil), f.started...)
}

// StartedIDs returns the sorted IDs of every successful start.
func (f *Fake) StartedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.started))
	for _, spec := range f.started {
		ids = append(ids, spec.ID)
	}
	sort.Strings(ids)
	return ids
}

// Stopped returns the IDs of every successful stop, in call order.
func (f *Fake) Stopped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

// Running returns the sorted IDs of services started and not yet stopped.
func (f *Fake) Running() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.running))
	for _, spec := range f.running {
		ids = append(ids, spec.ID)
	}
	sort.Strings(ids)
	return ids
}

// Spec returns the spec of the running service with the given ID.
func (f *Fake) Spec(id string) (supervisor.Spec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, spec := range f.running {
		if spec.ID == id {
			return spec, true
		}
	}
	return supervisor.Spec{}, false
}
