package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/config"
	"launcher/internal/orchestrator"
	"launcher/internal/services"
)

func testLauncherConfig(t *testing.T) *config.LauncherConfig {
	t.Helper()
	dir := t.TempDir()
	lc := config.GetDefaultConfig().Resolve(dir)
	require.NoError(t, os.WriteFile(lc.ModulesFile, []byte("modules: []\n"), 0o644))
	return &lc
}

func TestInitializeServices(t *testing.T) {
	lc := testLauncherConfig(t)
	svcs, err := InitializeServices(&Config{LauncherConfig: lc})
	require.NoError(t, err)
	defer svcs.Streams.Close()

	require.NotNil(t, svcs.Orchestrator)
	assert.Equal(t, orchestrator.StateIdle, svcs.Orchestrator.State())
	assert.NotNil(t, svcs.Metrics)
	assert.NotNil(t, svcs.Status)
	assert.Equal(t, config.DefaultStatusAddress, svcs.StatusAddress)
	assert.Nil(t, svcs.Watcher)

	registry := svcs.Orchestrator.GetServiceRegistry()
	for name, typ := range map[string]services.ServiceType{
		"mhub":  services.TypeBroker,
		"caddy": services.TypeProxy,
		"mongo": services.TypeDatabase,
	} {
		svc, ok := registry.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, typ, svc.GetType())
		assert.Equal(t, services.StateStopped, svc.GetState())

		_, err := os.Stat(filepath.Join(lc.Logs.Directory, name+".log"))
		assert.NoError(t, err, "log stream for %s", name)
	}

	assert.False(t, svcs.Orchestrator.Secrets().IsZero())
}

func TestInitializeServices_Options(t *testing.T) {
	lc := testLauncherConfig(t)
	lc.Status.Enabled = false

	svcs, err := InitializeServices(&Config{LauncherConfig: lc, Watch: true})
	require.NoError(t, err)
	defer svcs.Streams.Close()

	assert.Nil(t, svcs.Status)
	assert.NotNil(t, svcs.Watcher)
}

func TestInitializeServices_RequiresConfig(t *testing.T) {
	_, err := InitializeServices(&Config{})
	assert.Error(t, err)
}
