package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-broker/internal/domain"
)

// writeTimeout bounds a whole request, fetch included; ?timeout= must stay
// below it.
const writeTimeout = 60 * time.Second

// Adapter is the host-facing surface the server exposes over HTTP.
type Adapter interface {
	sharedobs.ReadinessChecker
	Get(ctx context.Context, port string, timeout time.Duration) (any, bool)
	Test(ctx context.Context, cmd string) any
	Info() domain.ModuleInfo
}

// Server exposes the adapter ports plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	adapter    Adapter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /ports,
// /ports/{port}, /test, and /info routes. The write timeout leaves room for
// a provider fetch.
func NewServer(addr string, adapter Adapter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		adapter: adapter,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(adapter))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ports", s.handlePorts)
	mux.HandleFunc("GET /ports/{port}", s.handlePort)
	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("GET /info", s.handleInfo)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	timeout, err := parseTimeout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, ok := s.adapter.Get(r.Context(), "", timeout)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handlePort(w http.ResponseWriter, r *http.Request) {
	timeout, err := parseTimeout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	port := r.PathValue("port")
	v, ok := s.adapter.Get(r.Context(), port, timeout)
	if !ok {
		writeError(w, http.StatusNotFound, "no value for port "+port)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"port": port, "value": v})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.adapter.Test(r.Context(), r.URL.Query().Get("cmd")))
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.adapter.Info())
}

// parseTimeout reads the optional ?timeout= duration. Absent means the
// adapter default.
func parseTimeout(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.New("invalid timeout: must be a non-negative duration")
	}
	if d >= writeTimeout {
		return 0, fmt.Errorf("invalid timeout: must be below %s", writeTimeout)
	}
	return d, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
