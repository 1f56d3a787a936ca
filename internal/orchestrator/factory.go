package orchestrator

import (
	"launcher/internal/modules"
	"launcher/internal/services"
	"launcher/pkg/logging"
)

// trackingFactory registers every module process it creates so that it
// shows up in Services and emits state change events.
type trackingFactory struct {
	inner modules.ServiceFactory
	o     *Orchestrator
}

func (f *trackingFactory) Create(def services.Definition) services.Service {
	svc := f.inner.Create(def)
	svc.SetStateChangeCallback(f.o.createStateChangeCallback())

	// A module process from a previous start may still be listed.
	if err := f.o.registry.Replace(svc); err != nil {
		logging.Warn("Orchestrator", "Not tracking service %s: %v", def.Name, err)
	}
	return svc
}
