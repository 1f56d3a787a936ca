package modules

import (
	"context"
	"errors"
	"fmt"

	"launcher/internal/configurator"
	"launcher/internal/services"
	"launcher/internal/services/proxy"
	"launcher/internal/template"
)

// TemplateData is available to the args and env templates of a
// declared module.
type TemplateData struct {
	Name                    string
	Port                    int
	Secret                  string
	ProtectedBrokerPassword string
	BrokerURL               string
	DatabaseURI             string
	LogLevel                string
	LogDir                  string
}

// ProcessModule runs a declared executable as a supervised service.
type ProcessModule struct {
	decl   Declaration
	engine *template.Engine
}

// NewProcessModule creates a module for decl.
func NewProcessModule(decl Declaration) *ProcessModule {
	return &ProcessModule{decl: decl, engine: template.New()}
}

func (m *ProcessModule) Name() string {
	return m.decl.Name
}

// Declaration returns the declaration the module was created from.
func (m *ProcessModule) Declaration() Declaration {
	return m.decl
}

// BrokerEntry returns the module's broker configuration.
func (m *ProcessModule) BrokerEntry() configurator.Entry {
	return configurator.Entry{
		Module:     m.decl.Name,
		Publishes:  m.decl.Broker.Publishes,
		Subscribes: m.decl.Broker.Subscribes,
		Settings:   m.decl.Settings,
	}
}

// Start renders the module's arguments, starts its process and registers
// its proxy route.
func (m *ProcessModule) Start(ctx context.Context, cfg Config, deps Dependencies) (StopFunc, error) {
	if deps.Services == nil {
		return nil, fmt.Errorf("module %s: no service factory", m.decl.Name)
	}

	data := TemplateData{
		Name:                    m.decl.Name,
		Port:                    cfg.Port,
		Secret:                  cfg.Secret,
		ProtectedBrokerPassword: cfg.ProtectedBrokerPassword,
		LogLevel:                cfg.Logs.Level,
		LogDir:                  cfg.Logs.Directory,
	}
	if deps.Broker != nil {
		data.BrokerURL = deps.Broker.URL()
	}
	if m.decl.Database != "" && deps.Database != nil {
		data.DatabaseURI = deps.Database.DatabaseURI(m.decl.Database)
	}

	args, err := m.engine.RenderSlice(m.decl.Name+".args", m.decl.Args, data)
	if err != nil {
		return nil, err
	}
	env, err := m.engine.RenderMap(m.decl.Name+".env", m.decl.Env, data)
	if err != nil {
		return nil, err
	}

	svc := deps.Services.Create(services.Definition{
		Name:       m.decl.Name,
		Type:       services.TypeModule,
		Executable: m.decl.Executable,
		Arguments:  args,
		WorkDir:    m.decl.WorkDir,
		Env:        env,
		LogStream:  cfg.LogStream,
	})

	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start module %s: %w", m.decl.Name, err)
	}

	stop := func(ctx context.Context) error {
		return svc.Stop(ctx)
	}

	if m.decl.Route != "" && deps.Proxy != nil {
		if err := deps.Proxy.AddRoute(proxy.Route{Path: m.decl.Route, Port: cfg.Port}); err != nil {
			if stopErr := stop(ctx); stopErr != nil {
				err = errors.Join(err, fmt.Errorf("stop after route failure: %w", stopErr))
			}
			return nil, fmt.Errorf("module %s: %w", m.decl.Name, err)
		}
	}

	return stop, nil
}
