package orchestrator

import (
	"context"
	"time"

	"launcher/internal/ports"
	"launcher/internal/secrets"
	"launcher/internal/services"
	"launcher/pkg/logging"
)

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastError returns the error of the last failed start, if the
// orchestrator is failed.
func (o *Orchestrator) LastError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastErr
}

// Secrets returns the secrets generated for this orchestrator.
func (o *Orchestrator) Secrets() secrets.Set {
	return o.secrets
}

// Modules returns the names of the last resolved module set.
func (o *Orchestrator) Modules() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return moduleNames(o.modules)
}

// PortsAllocation returns the port allocation of the currently resolved
// module set, resolving it first if no start has done so yet.
func (o *Orchestrator) PortsAllocation(ctx context.Context) (ports.Allocation, error) {
	o.mu.RLock()
	resolved := o.resolved
	mods := o.modules
	o.mu.RUnlock()

	if !resolved {
		loaded, err := o.cfg.Modules.LoadModules(ctx)
		if err != nil {
			return nil, err
		}

		o.mu.Lock()
		if !o.resolved {
			o.modules = loaded
			o.resolved = true
		}
		mods = o.modules
		o.mu.Unlock()
	}

	return ports.Allocate(moduleNames(mods), o.cfg.BasePort)
}

// Configuration returns the broker configuration of the last start as
// YAML, or nil before the first start.
func (o *Orchestrator) Configuration() ([]byte, error) {
	o.mu.RLock()
	conf := o.configurator
	o.mu.RUnlock()

	if conf == nil {
		return nil, nil
	}
	return conf.Snapshot()
}

// Services returns the status of the adapters and of every module process.
func (o *Orchestrator) Services() []services.Status {
	return services.Statuses(o.registry)
}

// GetServiceRegistry returns the registry of adapters and module processes.
func (o *Orchestrator) GetServiceRegistry() services.ServiceRegistry {
	return o.registry
}

// SubscribeToStateChanges returns a channel for state change events.
func (o *Orchestrator) SubscribeToStateChanges() <-chan ServiceStateChangedEvent {
	eventChan := make(chan ServiceStateChangedEvent, 100)
	o.mu.Lock()
	o.stateChangeSubscribers = append(o.stateChangeSubscribers, eventChan)
	o.mu.Unlock()
	return eventChan
}

// createStateChangeCallback creates a state change callback that publishes events
func (o *Orchestrator) createStateChangeCallback() services.StateChangeCallback {
	return func(name string, oldState, newState services.ServiceState, err error) {
		o.publishStateChangeEvent(name, oldState, newState, err)
	}
}

// publishStateChangeEvent publishes a state change event to all subscribers
func (o *Orchestrator) publishStateChangeEvent(name string, oldState, newState services.ServiceState, err error) {
	logging.Debug("Orchestrator", "Service %s state changed: %s -> %s", name, oldState, newState)

	if o.cfg.Metrics != nil {
		o.cfg.Metrics.ServiceTransition(name, string(newState))
	}

	serviceType := string(services.TypeModule)
	if service, exists := o.registry.Get(name); exists {
		serviceType = string(service.GetType())
	}

	event := ServiceStateChangedEvent{
		Name:        name,
		ServiceType: serviceType,
		OldState:    string(oldState),
		NewState:    string(newState),
		Error:       err,
		Timestamp:   time.Now().Unix(),
	}

	// Publish to all subscribers
	o.mu.RLock()
	subscribers := make([]chan<- ServiceStateChangedEvent, len(o.stateChangeSubscribers))
	copy(subscribers, o.stateChangeSubscribers)
	o.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Don't block if subscriber can't receive immediately
			logging.Debug("Orchestrator", "Subscriber blocked, skipping event for service %s", name)
		}
	}
}
