package services

import "time"

// Status is a point-in-time view of a service for reporting.
type Status struct {
	Name  string      `json:"name" yaml:"name"`
	Type  ServiceType `json:"type" yaml:"type"`
	State string      `json:"state" yaml:"state"`
	Error string      `json:"error,omitempty" yaml:"error,omitempty"`
	Since string      `json:"since,omitempty" yaml:"since,omitempty"`
}

// StatusOf captures the current status of service.
func StatusOf(service Service) Status {
	status := Status{
		Name:  service.GetName(),
		Type:  service.GetType(),
		State: string(service.GetState()),
	}
	if err := service.GetLastError(); err != nil {
		status.Error = err.Error()
	}
	if timed, ok := service.(interface{ StateChangedAt() time.Time }); ok {
		if at := timed.StateChangedAt(); !at.IsZero() {
			status.Since = at.UTC().Format(time.RFC3339)
		}
	}
	return status
}

// Statuses returns the status of every service in the registry.
func Statuses(reg ServiceRegistry) []Status {
	all := reg.GetAll()
	out := make([]Status, len(all))
	for i, service := range all {
		out[i] = StatusOf(service)
	}
	return out
}
