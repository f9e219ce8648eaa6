// Package api implements the dashboard HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mailfleet/campdash/internal/config"
	"github.com/mailfleet/campdash/internal/metrics"
	"github.com/mailfleet/campdash/internal/report"
	"github.com/mailfleet/campdash/internal/tenant"
)

// Aggregator is the slice of the report pipeline the API needs.
type Aggregator interface {
	Fleet(ctx context.Context, tenants []tenant.Tenant, rng report.Range) ([]report.TenantMetrics, error)
}

// Server is the dashboard HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	aggregator Aggregator
	registry   *tenant.Registry
	config     *config.APIConfig
	logger     *slog.Logger
	version    string
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(agg Aggregator, reg *tenant.Registry, cfg *config.APIConfig, version string, logger *slog.Logger) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		aggregator: agg,
		registry:   reg,
		config:     cfg,
		logger:     logger,
		version:    version,
		startTime:  time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.HTTPMiddleware)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	// /api/v1 is the canonical mount; the bare path is kept for
	// dashboards wired to /metrics.
	s.router.Get("/metrics", s.handleMetrics)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
