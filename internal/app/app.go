// Package app wires the configuration, tenant registry, aggregation
// pipeline and HTTP servers together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailfleet/campdash/internal/api"
	"github.com/mailfleet/campdash/internal/config"
	"github.com/mailfleet/campdash/internal/klaviyo"
	"github.com/mailfleet/campdash/internal/metrics"
	"github.com/mailfleet/campdash/internal/report"
	"github.com/mailfleet/campdash/internal/tenant"
)

// App is the main application
type App struct {
	config        *config.Config
	registry      *tenant.Registry
	aggregator    *report.Aggregator
	apiServer     *api.Server
	metricsServer *metrics.Server
	logger        *slog.Logger
}

// New creates a new application from a loaded configuration.
func New(cfg *config.Config, version string) (*App, error) {
	logger := setupLogger(cfg.Logging)

	registry := BuildRegistry(cfg)
	active := registry.Active()
	if len(active) == 0 {
		logger.Warn("no tenant has a credential configured; every request will fail with 400")
	}

	client := klaviyo.NewClient(klaviyo.Config{
		BaseURL:  cfg.Upstream.BaseURL,
		Revision: cfg.Upstream.Revision,
		Timeout:  cfg.Upstream.Timeout,
		MaxPages: cfg.Upstream.MaxPages,
	})

	aggregator := report.NewAggregator(client, report.Config{
		IncludeEngagement: cfg.Fetch.IncludeEngagement,
		MaxConcurrent:     cfg.Fetch.MaxConcurrent,
	}, logger)

	apiServer := api.NewServer(aggregator, registry, &cfg.API, version, logger.With("component", "api"))

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		metrics.SetTenantCounts(len(registry.All()), len(active))
		metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path, logger.With("component", "metrics"))
	}

	return &App{
		config:        cfg,
		registry:      registry,
		aggregator:    aggregator,
		apiServer:     apiServer,
		metricsServer: metricsServer,
		logger:        logger,
	}, nil
}

// BuildRegistry constructs the immutable tenant registry from the
// configuration, resolving each credential from the environment.
func BuildRegistry(cfg *config.Config) *tenant.Registry {
	tenants := make([]tenant.Tenant, 0, len(cfg.Tenants))
	for _, tc := range cfg.Tenants {
		tenants = append(tenants, tenant.Tenant{
			ID:         tc.ID,
			Name:       tc.Name,
			Credential: tc.Credential(),
			Color:      tc.Color,
		})
	}
	return tenant.NewRegistry(tenants)
}

// Aggregator returns the report pipeline, for one-shot CLI use.
func (a *App) Aggregator() *report.Aggregator {
	return a.aggregator
}

// Registry returns the tenant registry.
func (a *App) Registry() *tenant.Registry {
	return a.registry
}

// Run starts the servers and blocks until a shutdown signal or a server
// error.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting campdash",
		"api_addr", a.config.API.ListenAddr,
		"tenants", len(a.registry.All()),
		"active_tenants", len(a.registry.Active()),
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		a.metricsServer.StartSystemMetricsUpdater(ctx, a.config.Metrics.FlushInterval)
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown failed", "error", err)
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	a.logger.Info("campdash stopped")
	return nil
}

// setupLogger builds the process logger from the logging configuration.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
