package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"launcher/internal/configurator"
	"launcher/internal/modules"
	"launcher/internal/services"
	"launcher/internal/services/proxy"
)

// eventLog records the order of lifecycle calls across fakes.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// index returns the position of event, or -1.
func (l *eventLog) index(event string) int {
	for i, e := range l.all() {
		if e == event {
			return i
		}
	}
	return -1
}

type fakeService struct {
	*services.BaseService
	log *eventLog

	startHook func(ctx context.Context) error
	stopErr   error

	starts atomic.Int32
	stops  atomic.Int32
}

func newFakeService(name string, serviceType services.ServiceType, log *eventLog) *fakeService {
	return &fakeService{
		BaseService: services.NewBaseService(name, serviceType),
		log:         log,
	}
}

func (f *fakeService) Start(ctx context.Context) error {
	f.starts.Add(1)
	f.UpdateState(services.StateStarting, nil)
	if f.startHook != nil {
		if err := f.startHook(ctx); err != nil {
			f.UpdateState(services.StateFailed, err)
			return err
		}
	}
	f.log.add("start " + f.GetName())
	f.UpdateState(services.StateRunning, nil)
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.stops.Add(1)
	f.log.add("stop " + f.GetName())
	if f.stopErr != nil {
		f.UpdateState(services.StateFailed, f.stopErr)
		return f.stopErr
	}
	f.UpdateState(services.StateStopped, nil)
	return nil
}

func (f *fakeService) Restart(ctx context.Context) error {
	if err := f.Stop(ctx); err != nil {
		return err
	}
	return f.Start(ctx)
}

type fakeBroker struct {
	*fakeService
	applyErr error

	mu      sync.Mutex
	applied []configurator.Aggregate
}

func (b *fakeBroker) URL() string { return "ws://localhost:13900" }

func (b *fakeBroker) ApplyConfiguration(ctx context.Context, aggregate configurator.Aggregate) error {
	b.log.add("seal")
	if b.applyErr != nil {
		return b.applyErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = append(b.applied, aggregate)
	return nil
}

func (b *fakeBroker) appliedConfigs() []configurator.Aggregate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]configurator.Aggregate(nil), b.applied...)
}

type fakeProxy struct {
	*fakeService

	mu     sync.Mutex
	routes []proxy.Route
}

func (p *fakeProxy) AddRoute(route proxy.Route) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = append(p.routes, route)
	return nil
}

func (p *fakeProxy) ClearRoutes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = nil
}

func (p *fakeProxy) Routes() []proxy.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]proxy.Route(nil), p.routes...)
}

type fakeDatabase struct {
	*fakeService
}

func (d *fakeDatabase) DatabaseURI(name string) string {
	return "mongodb://localhost:27017/" + name
}

type fakeModule struct {
	name  string
	log   *eventLog
	entry *configurator.Entry

	startErr  error
	startHook func(ctx context.Context)
	stopErr   error
	stopPanic bool
	stopBlock chan struct{}

	// withProcess starts a service through the factory
	withProcess bool

	mu      sync.Mutex
	cfg     modules.Config
	deps    modules.Dependencies
	started atomic.Int32
	stopped atomic.Int32
}

func (m *fakeModule) Name() string { return m.name }

func (m *fakeModule) Start(ctx context.Context, cfg modules.Config, deps modules.Dependencies) (modules.StopFunc, error) {
	if m.startHook != nil {
		m.startHook(ctx)
	}
	if m.startErr != nil {
		return nil, m.startErr
	}

	var svc services.Service
	if m.withProcess {
		svc = deps.Services.Create(services.Definition{Name: m.name, Executable: "/bin/" + m.name})
		if err := svc.Start(ctx); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.cfg = cfg
	m.deps = deps
	m.mu.Unlock()

	m.started.Add(1)
	m.log.add("module " + m.name)

	return func(ctx context.Context) error {
		m.stopped.Add(1)
		m.log.add("stop module " + m.name)
		if m.stopPanic {
			panic("stop exploded")
		}
		if m.stopBlock != nil {
			<-m.stopBlock
		}
		if svc != nil {
			if err := svc.Stop(ctx); err != nil {
				return err
			}
		}
		return m.stopErr
	}, nil
}

func (m *fakeModule) config() modules.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *fakeModule) dependencies() modules.Dependencies {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deps
}

// configurableModule adds a broker entry to fakeModule.
type configurableModule struct {
	*fakeModule
}

func (m configurableModule) BrokerEntry() configurator.Entry {
	return *m.entry
}

type fakeSet struct {
	mu    sync.Mutex
	mods  []modules.Module
	err   error
	loads int
}

func (s *fakeSet) LoadModules(ctx context.Context) ([]modules.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]modules.Module(nil), s.mods...), nil
}

func (s *fakeSet) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

type fakeRecorder struct {
	mu         sync.Mutex
	states     []string
	operations map[string]int
	failures   map[string]int
	modules    int
	transition int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{operations: map[string]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) SetState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *fakeRecorder) ObserveOperation(operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[operation]++
	if err != nil {
		r.failures[operation]++
	}
}

func (r *fakeRecorder) SetModules(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = n
}

func (r *fakeRecorder) ServiceTransition(service, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition++
}

var errBoom = errors.New("boom")
