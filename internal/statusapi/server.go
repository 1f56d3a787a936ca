package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"launcher/internal/metrics"
	"launcher/internal/orchestrator"
	"launcher/internal/ports"
	"launcher/internal/services"
	"launcher/pkg/logging"
)

// Controller is the part of the orchestrator the status API reads and drives.
type Controller interface {
	State() orchestrator.State
	LastError() error
	Modules() []string
	Services() []services.Status
	PortsAllocation(ctx context.Context) (ports.Allocation, error)
	Configuration() ([]byte, error)
	Restart(ctx context.Context) error
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	State     orchestrator.State `json:"state"`
	LastError string             `json:"lastError,omitempty"`
	Modules   []string           `json:"modules"`
	Services  []services.Status  `json:"services"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the launcher status over HTTP.
type Server struct {
	controller Controller
	metrics    *metrics.Collector
	router     *mux.Router

	httpServer *http.Server
	listener   net.Listener
}

// New creates a status server for ctrl. collector may be nil, in which
// case /metrics is not served and requests are not instrumented.
func New(ctrl Controller, collector *metrics.Collector) *Server {
	s := &Server{
		controller: ctrl,
		metrics:    collector,
		router:     mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/services/{name}", s.handleService).Methods(http.MethodGet)
	s.router.HandleFunc("/ports", s.handlePorts).Methods(http.MethodGet)
	s.router.HandleFunc("/configuration", s.handleConfiguration).Methods(http.MethodGet)
	s.router.HandleFunc("/restart", s.handleRestart).Methods(http.MethodPost)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	if s.metrics == nil {
		return s.router
	}
	return s.metrics.InstrumentHandler(s.router)
}

// Start listens on addr and serves in the background. Listen errors are
// returned directly; serve errors are logged.
func (s *Server) Start(addr string) error {
	if s.httpServer != nil {
		return errors.New("status server already started")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("StatusAPI", err, "Status server stopped unexpectedly")
		}
	}()

	logging.Info("StatusAPI", "Status API listening on http://%s", ln.Addr())
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.controller.State()
	status := http.StatusOK
	if state == orchestrator.StateFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"state": string(state)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		State:    s.controller.State(),
		Modules:  s.controller.Modules(),
		Services: s.controller.Services(),
	}
	if err := s.controller.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	if resp.Modules == nil {
		resp.Modules = []string{}
	}
	if resp.Services == nil {
		resp.Services = []services.Status{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, status := range s.controller.Services() {
		if status.Name == name {
			writeJSON(w, http.StatusOK, status)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("service %s not found", name))
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	alloc, err := s.controller.PortsAllocation(r.Context())
	if err != nil {
		var dup *ports.DuplicateModuleError
		if errors.As(err, &dup) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	data, err := s.controller.Configuration()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "no configuration has been applied yet")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	logging.Info("StatusAPI", "Restart requested by %s", r.RemoteAddr)

	// A client hanging up must not abort a restart half way.
	if err := s.controller.Restart(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(s.controller.State())})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
