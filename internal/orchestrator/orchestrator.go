package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"launcher/internal/configurator"
	"launcher/internal/logs"
	"launcher/internal/modules"
	"launcher/internal/ports"
	"launcher/internal/secrets"
	"launcher/internal/services"
	"launcher/pkg/logging"
)

// State is the lifecycle state of the orchestrator.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateFailed   State = "failed"
)

// DefaultStopTimeout bounds each module stop function.
const DefaultStopTimeout = 10 * time.Second

// BrokerService is the broker adapter as seen by the orchestrator.
type BrokerService interface {
	services.Service
	modules.Broker
	configurator.Target
}

// ProxyService is the proxy adapter as seen by the orchestrator.
type ProxyService interface {
	services.Service
	modules.Proxy
	ClearRoutes()
}

// DatabaseService is the database adapter as seen by the orchestrator.
type DatabaseService interface {
	services.Service
	modules.Database
}

// StreamFactory opens a named log stream.
type StreamFactory interface {
	Create(name string) (io.WriteCloser, error)
}

// Recorder receives lifecycle metrics.
type Recorder interface {
	SetState(state string)
	ObserveOperation(operation string, duration time.Duration, err error)
	SetModules(n int)
	ServiceTransition(service, state string)
}

// Config holds the configuration for the orchestrator.
type Config struct {
	Modules  modules.Set
	Broker   BrokerService
	Proxy    ProxyService
	Database DatabaseService

	// Services creates the processes of modules.
	Services modules.ServiceFactory

	// BasePort is the port of the first module. Defaults to ports.DefaultBasePort.
	BasePort int

	// LoadLogOptions loads the ambient log options. Defaults to logs.DefaultOptions.
	LoadLogOptions func() (logs.Options, error)

	// LogStreams opens one log stream per module. Optional.
	LogStreams StreamFactory

	// StopTimeout bounds each module stop function.
	StopTimeout time.Duration

	// Metrics is optional.
	Metrics Recorder

	// Secrets are generated by New when zero. Set them when an adapter
	// needs them before the orchestrator exists.
	Secrets secrets.Set
}

type namedStop struct {
	module string
	stop   modules.StopFunc
}

// Orchestrator starts and stops the broker, the database, the modules and
// the proxy as one unit.
type Orchestrator struct {
	cfg      Config
	secrets  secrets.Set
	registry services.ServiceRegistry
	factory  *trackingFactory

	// lifecycle admits one Start, Close or Restart at a time
	lifecycle chan struct{}

	mu           sync.RWMutex
	state        State
	lastErr      error
	modules      []modules.Module
	resolved     bool
	allocation   ports.Allocation
	configurator *configurator.Configurator
	stops        []namedStop

	// State change event subscribers
	stateChangeSubscribers []chan<- ServiceStateChangedEvent
}

// ServiceStateChangedEvent represents a service state change event.
type ServiceStateChangedEvent struct {
	Name        string
	ServiceType string
	OldState    string
	NewState    string
	Error       error
	Timestamp   int64
}

// New creates an idle orchestrator and generates its secrets unless
// cfg.Secrets is set.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Modules == nil {
		return nil, errors.New("orchestrator: module set is required")
	}
	if cfg.Broker == nil || cfg.Proxy == nil || cfg.Database == nil {
		return nil, errors.New("orchestrator: broker, proxy and database are required")
	}
	if cfg.Services == nil {
		return nil, errors.New("orchestrator: service factory is required")
	}
	if cfg.BasePort == 0 {
		cfg.BasePort = ports.DefaultBasePort
	}
	if cfg.LoadLogOptions == nil {
		cfg.LoadLogOptions = func() (logs.Options, error) { return logs.DefaultOptions(), nil }
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}

	set := cfg.Secrets
	if set.IsZero() {
		generated, err := secrets.NewSet()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		set = generated
	}

	o := &Orchestrator{
		cfg:       cfg,
		secrets:   set,
		registry:  services.NewRegistry(),
		lifecycle: make(chan struct{}, 1),
		state:     StateIdle,
	}
	o.factory = &trackingFactory{inner: cfg.Services, o: o}

	for _, svc := range []services.Service{cfg.Broker, cfg.Database, cfg.Proxy} {
		if err := o.registry.Register(svc); err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		svc.SetStateChangeCallback(o.createStateChangeCallback())
	}

	o.recordState(StateIdle)
	return o, nil
}

// Start boots everything. The order is:
//
//  1. resolve the module set and allocate ports
//  2. in parallel: load log options, start the broker and seal the
//     configurator against it, start the database
//  3. start every module in parallel
//  4. start the proxy
//
// Any failure after step 1 rolls back whatever was started, the same way
// Close does, and leaves the orchestrator failed.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()

	return o.observe("start", func() error { return o.start(ctx) })
}

// Close stops every module and then the proxy, database and broker.
// Closing an orchestrator that is not running is a no-op.
func (o *Orchestrator) Close(ctx context.Context) error {
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()

	return o.observe("close", func() error { return o.close(ctx) })
}

// Restart closes and starts the orchestrator without letting another
// lifecycle call in between.
func (o *Orchestrator) Restart(ctx context.Context) error {
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()

	return o.observe("restart", func() error {
		if err := o.close(ctx); err != nil {
			logging.Warn("Orchestrator", "Errors while stopping for restart: %v", err)
		}
		return o.start(ctx)
	})
}

func (o *Orchestrator) start(ctx context.Context) error {
	if o.State() == StateRunning {
		return ErrAlreadyRunning
	}

	o.setState(StateStarting, nil)
	logging.Info("Orchestrator", "Starting")

	mods, err := o.cfg.Modules.LoadModules(ctx)
	if err != nil {
		return o.fail(&StartError{Stage: StageResolve, Err: err})
	}

	alloc, err := ports.Allocate(moduleNames(mods), o.cfg.BasePort)

	o.mu.Lock()
	o.modules = mods
	o.resolved = true
	o.allocation = alloc
	o.mu.Unlock()

	if o.cfg.Metrics != nil {
		o.cfg.Metrics.SetModules(len(mods))
	}

	if err != nil {
		return o.fail(&StartError{Stage: StagePorts, Err: err})
	}

	o.cfg.Proxy.ClearRoutes()
	conf := configurator.New(o.cfg.Broker)

	o.mu.Lock()
	o.configurator = conf
	o.mu.Unlock()

	var logOptions logs.Options
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts, err := o.cfg.LoadLogOptions()
		if err != nil {
			return fmt.Errorf("load log options: %w", err)
		}
		logOptions = opts
		return nil
	})
	g.Go(func() error {
		if err := o.cfg.Broker.Start(gctx); err != nil {
			return fmt.Errorf("start broker: %w", err)
		}
		for _, m := range mods {
			c, ok := m.(modules.Configurable)
			if !ok {
				continue
			}
			if err := conf.AddModule(c.BrokerEntry()); err != nil {
				return fmt.Errorf("configure module %s: %w", m.Name(), err)
			}
		}
		if err := conf.Seal(gctx); err != nil {
			return fmt.Errorf("seal configuration: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := o.cfg.Database.Start(gctx); err != nil {
			return fmt.Errorf("start database: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return o.rollback(ctx, StageServices, err)
	}

	deps := modules.Dependencies{
		Broker:   o.cfg.Broker,
		Proxy:    o.cfg.Proxy,
		Database: o.cfg.Database,
		Services: o.factory,
		Ports:    alloc.Clone(),
	}

	g, gctx = errgroup.WithContext(ctx)
	for _, m := range mods {
		m := m
		g.Go(func() error {
			port, _ := alloc.Port(m.Name())
			cfg := modules.Config{
				Port:                    port,
				Secret:                  o.secrets.Secret(),
				ProtectedBrokerPassword: o.secrets.ProtectedPassword(),
				LogStream:               o.logStream(m.Name()),
				Logs:                    logOptions,
			}

			stop, err := m.Start(gctx, cfg, deps)
			if err != nil {
				return fmt.Errorf("module %s: %w", m.Name(), err)
			}
			if stop != nil {
				o.mu.Lock()
				o.stops = append(o.stops, namedStop{module: m.Name(), stop: stop})
				o.mu.Unlock()
			}
			logging.Debug("Orchestrator", "Module %s started on port %d", m.Name(), port)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return o.rollback(ctx, StageModules, err)
	}

	if err := o.cfg.Proxy.Start(ctx); err != nil {
		return o.rollback(ctx, StageProxy, fmt.Errorf("start proxy: %w", err))
	}

	o.setState(StateRunning, nil)
	logging.Info("Orchestrator", "Running with %d modules", len(mods))
	return nil
}

func (o *Orchestrator) close(ctx context.Context) error {
	if o.State() != StateRunning {
		return nil
	}

	o.setState(StateStopping, nil)
	logging.Info("Orchestrator", "Stopping")

	err := o.teardown(ctx)

	o.setState(StateIdle, nil)
	logging.Info("Orchestrator", "Stopped")
	return err
}

// rollback tears down a partial start and records the failure.
func (o *Orchestrator) rollback(ctx context.Context, stage string, cause error) error {
	logging.Error("Orchestrator", cause, "Start failed at %s stage, rolling back", stage)

	teardownErr := o.teardown(context.WithoutCancel(ctx))
	return o.fail(&StartError{Stage: stage, Err: errors.Join(cause, teardownErr)})
}

// teardown runs every collected stop function, then stops the adapters in
// parallel. It never aborts early.
func (o *Orchestrator) teardown(ctx context.Context) error {
	o.mu.Lock()
	stops := o.stops
	o.stops = nil
	o.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, s := range stops {
		wg.Add(1)
		go func(s namedStop) {
			defer wg.Done()
			if err := o.runStop(ctx, s); err != nil {
				logging.Error("Orchestrator", err, "Failed to stop module %s", s.module)
				collect(fmt.Errorf("stop module %s: %w", s.module, err))
			}
		}(s)
	}
	wg.Wait()

	for _, svc := range []services.Service{o.cfg.Proxy, o.cfg.Database, o.cfg.Broker} {
		wg.Add(1)
		go func(svc services.Service) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				logging.Error("Orchestrator", err, "Failed to stop %s", svc.GetName())
				collect(fmt.Errorf("stop %s: %w", svc.GetName(), err))
			}
		}(svc)
	}
	wg.Wait()

	if n := o.registry.UnregisterByType(services.TypeModule); n > 0 {
		logging.Debug("Orchestrator", "Dropped %d module processes", n)
	}

	return errors.Join(errs...)
}

// runStop calls one stop function, bounded by the stop timeout. Panics
// are turned into errors.
func (o *Orchestrator) runStop(ctx context.Context, s namedStop) error {
	stopCtx, cancel := context.WithTimeout(ctx, o.cfg.StopTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- s.stop(stopCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-stopCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return &services.TimeoutError{Service: s.module, Operation: "stop", Timeout: o.cfg.StopTimeout}
	}
}

func (o *Orchestrator) fail(err error) error {
	o.setState(StateFailed, err)
	return err
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	select {
	case o.lifecycle <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) release() {
	<-o.lifecycle
}

func (o *Orchestrator) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.ObserveOperation(operation, time.Since(start), err)
	}
	return err
}

func (o *Orchestrator) setState(state State, err error) {
	o.mu.Lock()
	o.state = state
	o.lastErr = err
	o.mu.Unlock()

	o.recordState(state)
}

func (o *Orchestrator) recordState(state State) {
	if o.cfg.Metrics != nil {
		o.cfg.Metrics.SetState(string(state))
	}
}

func (o *Orchestrator) logStream(name string) io.Writer {
	if o.cfg.LogStreams == nil {
		return nil
	}
	stream, err := o.cfg.LogStreams.Create(name)
	if err != nil {
		logging.Warn("Orchestrator", "No log stream for %s: %v", name, err)
		return nil
	}
	return stream
}

func moduleNames(mods []modules.Module) []string {
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name()
	}
	return names
}
