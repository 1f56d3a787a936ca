package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/logs"
	"launcher/pkg/logging"
)

func TestNewApplication_PreloadedConfig(t *testing.T) {
	lc := testLauncherConfig(t)

	application, err := NewApplication(&Config{Silent: true, LauncherConfig: lc})
	require.NoError(t, err)
	defer application.Services().Streams.Close()

	logging.Info("Test", "hello from the launcher")

	data, err := os.ReadFile(filepath.Join(lc.Logs.Directory, logs.MainStream+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the launcher")
}

func TestNewApplication_ConfigPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("basePort: 70000\n"), 0o644))

	_, err := NewApplication(&Config{Silent: true, ConfigPath: dir})
	assert.Error(t, err)
}

func TestLoadLauncherConfig_ResolvesPaths(t *testing.T) {
	lc, err := loadLauncherConfig(t.TempDir())
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(lc.ModulesFile))
	assert.True(t, filepath.IsAbs(lc.DataDir))
	assert.True(t, filepath.IsAbs(lc.Logs.Directory))
}

func TestConsoleLevel(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, consoleLevel(&Config{Debug: true}, logging.LevelWarn))
	assert.Equal(t, logging.LevelWarn, consoleLevel(&Config{}, logging.LevelWarn))
}
