package statusapi

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launcher/internal/orchestrator"
	"launcher/internal/ports"
	"launcher/internal/services"
)

func TestClient(t *testing.T) {
	ctrl := &fakeController{
		state:    orchestrator.StateRunning,
		modules:  []string{"web"},
		services: []services.Status{{Name: "web", Type: services.TypeModule, State: "running"}},
		alloc:    ports.Allocation{"web": 2828},
	}
	srv := httptest.NewServer(New(ctrl, nil).Handler())
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateRunning, status.State)
	assert.Equal(t, []string{"web"}, status.Modules)
	assert.Equal(t, ctrl.services, status.Services)

	alloc, err := client.Ports(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.Allocation{"web": 2828}, alloc)

	require.NoError(t, client.Restart(ctx))
	assert.Equal(t, 1, ctrl.restarts)

	ctrl.restartErr = errors.New("start failed at proxy stage: boom")
	err = client.Restart(ctx)
	require.Error(t, err)
	assert.Equal(t, "POST /restart: start failed at proxy stage: boom", err.Error())
}

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:2827", NewClient("localhost:2827").baseURL)
	assert.Equal(t, "https://example.com", NewClient("https://example.com/").baseURL)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr).Status(context.Background())
	assert.Error(t, err)
}
