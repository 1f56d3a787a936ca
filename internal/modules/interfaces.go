package modules

import (
	"context"
	"io"

	"launcher/internal/configurator"
	"launcher/internal/logs"
	"launcher/internal/ports"
	"launcher/internal/services"
	"launcher/internal/services/proxy"
)

// StopFunc releases everything a module started. It is called exactly once.
type StopFunc func(ctx context.Context) error

// Config is the resolved configuration handed to a module on start.
type Config struct {
	// Port is the port allocated to this module.
	Port int

	// Secret is the launcher's configuration secret.
	Secret string

	// ProtectedBrokerPassword authenticates as the broker's protected user.
	ProtectedBrokerPassword string

	// LogStream receives the module's output.
	LogStream io.Writer

	// Logs are the ambient log options.
	Logs logs.Options
}

// Broker is the part of the broker adapter modules use.
type Broker interface {
	URL() string
}

// Proxy is the part of the proxy adapter modules use.
type Proxy interface {
	AddRoute(route proxy.Route) error
}

// Database is the part of the database adapter modules use.
type Database interface {
	DatabaseURI(name string) string
}

// ServiceFactory creates supervised services for modules.
type ServiceFactory interface {
	Create(def services.Definition) services.Service
}

// Dependencies are the shared services handed to every module.
type Dependencies struct {
	Broker   Broker
	Proxy    Proxy
	Database Database
	Services ServiceFactory

	// Ports is the full allocation of the current start.
	Ports ports.Allocation
}

// Module is a pluggable unit started by the orchestrator.
type Module interface {
	Name() string
	Start(ctx context.Context, cfg Config, deps Dependencies) (StopFunc, error)
}

// Configurable is implemented by modules that contribute broker
// configuration. It is collected before any module starts.
type Configurable interface {
	BrokerEntry() configurator.Entry
}

// Set discovers the modules to run.
type Set interface {
	LoadModules(ctx context.Context) ([]Module, error)
}
