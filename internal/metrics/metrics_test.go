package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("")
	require.NotNil(t, c)
	require.NotNil(t, c.Registry())

	// Separate collectors do not share a registry
	other := NewCollector("")
	assert.NotSame(t, c.Registry(), other.Registry())
}

func TestCollector_SetState(t *testing.T) {
	c := NewCollector("test")

	c.SetState("starting")
	c.SetState("running")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.state.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.state.WithLabelValues("starting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.state.WithLabelValues("idle")))
}

func TestCollector_ObserveOperation(t *testing.T) {
	c := NewCollector("test")

	c.ObserveOperation("start", 100*time.Millisecond, nil)
	c.ObserveOperation("start", 50*time.Millisecond, errors.New("boom"))
	c.ObserveOperation("close", 10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("start", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("start", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("close", "success")))
}

func TestCollector_ModulesAndTransitions(t *testing.T) {
	c := NewCollector("test")

	c.SetModules(3)
	c.ServiceTransition("mhub", "running")
	c.ServiceTransition("mhub", "running")

	assert.Equal(t, 3.0, testutil.ToFloat64(c.modules))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("mhub", "running")))
}

func TestCollector_HandlerAndInstrumentation(t *testing.T) {
	c := NewCollector("test")
	c.SetModules(2)

	handler := c.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ports/extra", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/ports", "418")))

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_orchestrator_modules 2"))
}

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"":            "/",
		"/":           "/",
		"/status":     "/status",
		"/ports/a/b":  "/ports",
		"//healthz//": "/healthz",
	}
	for in, want := range tests {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}
