package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/services"
	"launcher/internal/supervisor/supervisortest"
)

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name     string
		opts     URIOptions
		expected string
	}{
		{
			name:     "defaults",
			opts:     URIOptions{},
			expected: "mongodb://localhost:27017",
		},
		{
			name:     "host port and db",
			opts:     URIOptions{Host: "h", Port: 1, DB: "d"},
			expected: "mongodb://h:1/d",
		},
		{
			name:     "credentials",
			opts:     URIOptions{Credentials: &Credentials{User: "u", Password: "p"}, Host: "h", Port: 2},
			expected: "mongodb://u:p@h:2",
		},
		{
			name:     "db only",
			opts:     URIOptions{DB: "scoring"},
			expected: "mongodb://localhost:27017/scoring",
		},
		{
			name:     "empty credentials",
			opts:     URIOptions{Credentials: &Credentials{}},
			expected: "mongodb://:@localhost:27017",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildURI(tt.opts))
		})
	}
}

func ExampleBuildURI() {
	fmt.Println(BuildURI(URIOptions{DB: "scoring"}))
	// Output: mongodb://localhost:27017/scoring
}

func TestDatabase_Definition(t *testing.T) {
	dataDir := t.TempDir()
	d := New(Options{DataDir: dataDir, Port: 27018}, supervisortest.New(), services.Timeouts{})

	assert.Equal(t, ServiceName, d.GetName())
	assert.Equal(t, services.TypeDatabase, d.GetType())
	assert.Equal(t, 27018, d.Port())
	assert.Equal(t, "mongodb://localhost:27018/clock", d.DatabaseURI("clock"))

	def := d.Definition()
	assert.Equal(t, DefaultExecutable, def.Executable)
	assert.Equal(t, []string{"--dbpath", filepath.Join(dataDir, "$mongo"), "--port", "27018"}, def.Arguments)
}

func TestDatabase_StartCreatesDataDir(t *testing.T) {
	dataDir := t.TempDir()
	fake := supervisortest.New()
	d := New(Options{DataDir: dataDir}, fake, services.Timeouts{})

	require.NoError(t, d.Start(context.Background()))

	info, err := os.Stat(filepath.Join(dataDir, "$mongo"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, []string{"mongo"}, fake.Running())

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, services.StateStopped, d.GetState())
}
