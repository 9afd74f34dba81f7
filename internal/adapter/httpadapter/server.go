// Package httpadapter exposes the operational HTTP surface of the bot:
// liveness, readiness of the conversation loop, and Prometheus metrics.
package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessTimeout bounds a single readiness probe.
const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether the conversation loop has completed
// its first poll against the transport.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// status is the JSON body of the health and readiness endpoints.
type status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Server exposes the bot's health, readiness, and metrics endpoints.
// It carries no bot traffic; Telegram delivery runs over long polling.
type Server struct {
	httpServer *http.Server
	loop       ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates an ops server with /healthz, /readyz, and /metrics
// routes. Readiness follows the conversation loop.
func NewServer(addr string, loop ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		loop:   loop,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("ops server listening", "addr", s.httpServer.Addr)
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeStatus(w, http.StatusOK, status{Status: "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.loop.CheckReadiness(ctx); err != nil {
		s.writeStatus(w, http.StatusServiceUnavailable, status{
			Status: "not ready",
			Error:  err.Error(),
		})
		return
	}
	s.writeStatus(w, http.StatusOK, status{Status: "ready"})
}

func (s *Server) writeStatus(w http.ResponseWriter, code int, body status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("status response write failed", "error", err)
	}
}
