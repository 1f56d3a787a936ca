package modules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/configurator"
	"launcher/internal/logs"
	"launcher/internal/services"
	"launcher/internal/services/proxy"
	"launcher/internal/supervisor"
	"launcher/internal/supervisor/supervisortest"
)

const modulesFile = `modules:
  - name: scoring
    executable: ./scoring/bin/scoring
    args: ["--port", "{{ .Port }}", "--mhub", "{{ .BrokerURL }}"]
    env:
      MONGO_URI: "{{ .DatabaseURI }}"
      SECRET: "{{ .Secret }}"
    route: /scoring
    database: scoring
    broker:
      publishes: [score]
      subscribes: [clock]
    settings:
      rounds: 3
  - name: clock
    executable: /opt/clock
`

type mockBroker struct{}

func (mockBroker) URL() string { return "ws://localhost:13900" }

type mockDatabase struct{}

func (mockDatabase) DatabaseURI(name string) string { return "mongodb://localhost:27017/" + name }

type mockProxy struct {
	routes []proxy.Route
	err    error
}

func (m *mockProxy) AddRoute(route proxy.Route) error {
	if m.err != nil {
		return m.err
	}
	m.routes = append(m.routes, route)
	return nil
}

func writeModulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modules.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSet_LoadModules(t *testing.T) {
	path := writeModulesFile(t, modulesFile)

	mods, err := NewFileSet(path).LoadModules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 2)

	assert.Equal(t, "scoring", mods[0].Name())
	assert.Equal(t, "clock", mods[1].Name())

	scoring := mods[0].(*ProcessModule)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scoring", "bin", "scoring"), scoring.Declaration().Executable)
	assert.Equal(t, "/opt/clock", mods[1].(*ProcessModule).Declaration().Executable)

	entry := scoring.BrokerEntry()
	assert.Equal(t, configurator.Entry{
		Module:     "scoring",
		Publishes:  []string{"score"},
		Subscribes: []string{"clock"},
		Settings:   map[string]interface{}{"rounds": 3},
	}, entry)

	var _ Configurable = scoring
}

func TestFileSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"malformed", "modules: [", "parse modules file"},
		{"no name", "modules:\n  - executable: ./x\n", "has no name"},
		{"no executable", "modules:\n  - name: x\n", "has no executable"},
		{"broker name", "modules:\n  - name: mhub\n    executable: /x\n", "module name mhub is reserved for the broker"},
		{"proxy name", "modules:\n  - name: caddy\n    executable: /x\n", "reserved for the proxy"},
		{"database name", "modules:\n  - name: mongo\n    executable: /x\n", "reserved for the database"},
		{"main stream", "modules:\n  - name: main\n    executable: /x\n", "reserved for the main log stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSet(writeModulesFile(t, tt.content)).LoadModules(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSet(filepath.Join(t.TempDir(), "nope.yaml")).LoadModules(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestFileSet_Declarations(t *testing.T) {
	path := writeModulesFile(t, modulesFile)

	decls, err := NewFileSet(path).Declarations(context.Background())
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "/scoring", decls[0].Route)
	assert.Equal(t, "scoring", decls[0].Database)
	assert.Equal(t, "", decls[1].Route)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSet(path).Declarations(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSet_KeepsDuplicates(t *testing.T) {
	path := writeModulesFile(t, "modules:\n  - name: a\n    executable: /a\n  - name: a\n    executable: /b\n")

	mods, err := NewFileSet(path).LoadModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, mods, 2)
}

func TestProcessModule_Start(t *testing.T) {
	mods, err := NewFileSet(writeModulesFile(t, modulesFile)).LoadModules(context.Background())
	require.NoError(t, err)

	fake := supervisortest.New()
	px := &mockProxy{}
	deps := Dependencies{
		Broker:   mockBroker{},
		Proxy:    px,
		Database: mockDatabase{},
		Services: services.NewFactory(fake, services.Timeouts{}),
	}
	cfg := Config{
		Port:                    2829,
		Secret:                  "abcdefghijkl",
		ProtectedBrokerPassword: "mnopqrstuvwx",
		Logs:                    logs.DefaultOptions(),
	}

	stop, err := mods[0].Start(context.Background(), cfg, deps)
	require.NoError(t, err)
	require.NotNil(t, stop)

	spec, ok := fake.Spec("scoring")
	require.True(t, ok)
	assert.Equal(t, []string{"--port", "2829", "--mhub", "ws://localhost:13900"}, spec.Arguments)
	assert.Equal(t, map[string]string{
		"MONGO_URI": "mongodb://localhost:27017/scoring",
		"SECRET":    "abcdefghijkl",
	}, spec.Env)
	assert.Equal(t, []proxy.Route{{Path: "/scoring", Port: 2829}}, px.routes)

	require.NoError(t, stop(context.Background()))
	assert.Empty(t, fake.Running())
}

func TestProcessModule_StartWithoutRoute(t *testing.T) {
	m := NewProcessModule(Declaration{Name: "clock", Executable: "/opt/clock"})
	fake := supervisortest.New()
	px := &mockProxy{}

	stop, err := m.Start(context.Background(), Config{Port: 2828}, Dependencies{
		Proxy:    px,
		Services: services.NewFactory(fake, services.Timeouts{}),
	})
	require.NoError(t, err)
	assert.Empty(t, px.routes)
	assert.Equal(t, []string{"clock"}, fake.Running())
	require.NoError(t, stop(context.Background()))
}

func TestProcessModule_StartFailures(t *testing.T) {
	t.Run("bad template", func(t *testing.T) {
		fake := supervisortest.New()
		m := NewProcessModule(Declaration{Name: "x", Executable: "/x", Args: []string{"{{ .Nope }}"}})

		_, err := m.Start(context.Background(), Config{}, Dependencies{Services: services.NewFactory(fake, services.Timeouts{})})
		require.Error(t, err)
		assert.Empty(t, fake.Started())
	})

	t.Run("process fails", func(t *testing.T) {
		fake := supervisortest.New()
		fake.StartHook = func(ctx context.Context, spec supervisor.Spec) error {
			return errors.New("exec format error")
		}
		m := NewProcessModule(Declaration{Name: "x", Executable: "/x", Route: "/x"})
		px := &mockProxy{}

		_, err := m.Start(context.Background(), Config{Port: 2828}, Dependencies{
			Proxy:    px,
			Services: services.NewFactory(fake, services.Timeouts{}),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start module x")
		assert.Empty(t, px.routes)
	})

	t.Run("route rejected", func(t *testing.T) {
		fake := supervisortest.New()
		m := NewProcessModule(Declaration{Name: "x", Executable: "/x", Route: "/x"})

		_, err := m.Start(context.Background(), Config{Port: 2828}, Dependencies{
			Proxy:    &mockProxy{err: errors.New("invalid port")},
			Services: services.NewFactory(fake, services.Timeouts{}),
		})
		require.Error(t, err)
		assert.Empty(t, fake.Running())
	})

	t.Run("route rejected and stop fails", func(t *testing.T) {
		fake := supervisortest.New()
		fake.StopHook = func(ctx context.Context, id string) error {
			return errors.New("process group still alive")
		}
		m := NewProcessModule(Declaration{Name: "x", Executable: "/x", Route: "/x"})

		_, err := m.Start(context.Background(), Config{Port: 2828}, Dependencies{
			Proxy:    &mockProxy{err: errors.New("invalid port")},
			Services: services.NewFactory(fake, services.Timeouts{}),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port")
		assert.Contains(t, err.Error(), "stop after route failure")
		assert.Contains(t, err.Error(), "process group still alive")
	})

	t.Run("no factory", func(t *testing.T) {
		m := NewProcessModule(Declaration{Name: "x", Executable: "/x"})
		_, err := m.Start(context.Background(), Config{}, Dependencies{})
		assert.Error(t, err)
	})
}

func TestStatic(t *testing.T) {
	set := Static{NewProcessModule(Declaration{Name: "a"})}
	mods, err := set.LoadModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, mods, 1)
}
