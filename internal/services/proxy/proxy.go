package proxy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"launcher/internal/services"
	"launcher/internal/supervisor"
	"launcher/internal/template"
)

const (
	// ServiceName is the name of the proxy service and its data directory.
	ServiceName = "caddy"

	// DefaultExecutable is the bundled caddy binary.
	DefaultExecutable = "./internals/caddy/caddy"

	// DefaultPort is the public HTTP port.
	DefaultPort = 8080

	caddyfile = "Caddyfile"
)

const caddyfileTemplate = `{
	admin off
	auto_https off
}

:{{ .Port }} {
{{- range .Routes }}
	handle_path {{ .Path }}* {
		reverse_proxy localhost:{{ .Port }}
	}
{{- end }}
	respond 404
}
`

// Route forwards requests below Path to a local port.
type Route struct {
	Path string
	Port int
}

// Options configures the proxy adapter.
type Options struct {
	Executable string
	DataDir    string
	Port       int
	LogStream  io.Writer
}

// Proxy runs the caddy reverse proxy in front of the modules.
type Proxy struct {
	*services.ProcessService

	port   int
	engine *template.Engine

	mu     sync.Mutex
	routes map[string]Route
}

// New creates a stopped proxy without routes.
func New(opts Options, sup supervisor.Supervisor, timeouts services.Timeouts) *Proxy {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	configPath := filepath.Join(services.DataDir(opts.DataDir, ServiceName), caddyfile)

	p := &Proxy{
		port:   opts.Port,
		engine: template.New(),
		routes: make(map[string]Route),
	}
	p.ProcessService = services.NewProcessService(services.Definition{
		Name:       ServiceName,
		Type:       services.TypeProxy,
		Executable: opts.Executable,
		Arguments:  []string{"run", "--config", configPath, "--adapter", "caddyfile"},
		LogStream:  opts.LogStream,
		PreStart: func(ctx context.Context) error {
			return p.writeCaddyfile(configPath)
		},
	}, sup, timeouts)

	return p
}

// AddRoute registers a route. Routes are picked up on the next start; a
// later route for the same path replaces the earlier one.
func (p *Proxy) AddRoute(route Route) error {
	if !strings.HasPrefix(route.Path, "/") {
		return fmt.Errorf("route path %q must start with /", route.Path)
	}
	if route.Port <= 0 || route.Port > 65535 {
		return fmt.Errorf("route %s: invalid port %d", route.Path, route.Port)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[route.Path] = route
	return nil
}

// ClearRoutes removes every route.
func (p *Proxy) ClearRoutes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = make(map[string]Route)
}

// Routes returns the registered routes sorted by path.
func (p *Proxy) Routes() []Route {
	p.mu.Lock()
	defer p.mu.Unlock()

	routes := make([]Route, 0, len(p.routes))
	for _, route := range p.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Path < routes[j].Path
	})
	return routes
}

// Port returns the public HTTP port.
func (p *Proxy) Port() int {
	return p.port
}

// Render returns the Caddyfile for the current routes.
func (p *Proxy) Render() (string, error) {
	return p.engine.Render(caddyfile, caddyfileTemplate, struct {
		Port   int
		Routes []Route
	}{
		Port:   p.port,
		Routes: p.Routes(),
	})
}

func (p *Proxy) writeCaddyfile(path string) error {
	content, err := p.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create proxy data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write Caddyfile: %w", err)
	}
	return nil
}
