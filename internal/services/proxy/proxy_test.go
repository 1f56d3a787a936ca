package proxy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/services"
	"launcher/internal/supervisor/supervisortest"
)

func TestProxy_Definition(t *testing.T) {
	dataDir := t.TempDir()
	p := New(Options{DataDir: dataDir}, supervisortest.New(), services.Timeouts{})

	assert.Equal(t, ServiceName, p.GetName())
	assert.Equal(t, services.TypeProxy, p.GetType())
	assert.Equal(t, DefaultPort, p.Port())

	def := p.Definition()
	assert.Equal(t, DefaultExecutable, def.Executable)
	assert.Equal(t, []string{
		"run", "--config", filepath.Join(dataDir, "$caddy", "Caddyfile"), "--adapter", "caddyfile",
	}, def.Arguments)
}

func TestProxy_AddRoute(t *testing.T) {
	p := New(Options{}, supervisortest.New(), services.Timeouts{})

	require.NoError(t, p.AddRoute(Route{Path: "/scoring", Port: 2829}))
	require.NoError(t, p.AddRoute(Route{Path: "/clock", Port: 2828}))
	require.NoError(t, p.AddRoute(Route{Path: "/scoring", Port: 2830}))

	assert.Equal(t, []Route{
		{Path: "/clock", Port: 2828},
		{Path: "/scoring", Port: 2830},
	}, p.Routes())

	assert.Error(t, p.AddRoute(Route{Path: "scoring", Port: 2829}))
	assert.Error(t, p.AddRoute(Route{Path: "/x", Port: 0}))
	assert.Error(t, p.AddRoute(Route{Path: "/x", Port: 70000}))

	p.ClearRoutes()
	assert.Empty(t, p.Routes())
}

func TestProxy_Render(t *testing.T) {
	p := New(Options{Port: 9000}, supervisortest.New(), services.Timeouts{})
	require.NoError(t, p.AddRoute(Route{Path: "/scoring", Port: 2829}))
	require.NoError(t, p.AddRoute(Route{Path: "/clock", Port: 2828}))

	out, err := p.Render()
	require.NoError(t, err)

	expected := `{
	admin off
	auto_https off
}

:9000 {
	handle_path /clock* {
		reverse_proxy localhost:2828
	}
	handle_path /scoring* {
		reverse_proxy localhost:2829
	}
	respond 404
}
`
	assert.Equal(t, expected, out)
}

func TestProxy_StartWritesCaddyfile(t *testing.T) {
	dataDir := t.TempDir()
	fake := supervisortest.New()
	p := New(Options{DataDir: dataDir}, fake, services.Timeouts{})
	require.NoError(t, p.AddRoute(Route{Path: "/scoring", Port: 2829}))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, []string{"caddy"}, fake.Running())

	raw, err := os.ReadFile(filepath.Join(dataDir, "$caddy", "Caddyfile"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "handle_path /scoring* {")
	assert.Contains(t, string(raw), "reverse_proxy localhost:2829")
}
