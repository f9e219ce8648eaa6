package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mailfleet/campdash/internal/metrics"
	"github.com/mailfleet/campdash/internal/report"
	"github.com/mailfleet/campdash/internal/tenant"
)

// MetricsResponse is the response for GET /api/v1/metrics
type MetricsResponse struct {
	Metrics []report.TenantMetrics `json:"metrics"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Tenants       int    `json:"tenants"`
	ActiveTenants int    `json:"active_tenants"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleMetrics handles GET /api/v1/metrics. Query parameters:
// dateRange (all|7d|30d|90d, garbage falls back to all) and clientId
// (restricts the fleet to one tenant).
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rng := report.ParseRange(r.URL.Query().Get("dateRange"))
	clientID := r.URL.Query().Get("clientId")

	tenants := s.registry.Active()
	if clientID != "" {
		var matched []tenant.Tenant
		for _, t := range tenants {
			if t.ID == clientID {
				matched = append(matched, t)
			}
		}
		tenants = matched
	}

	if len(tenants) == 0 {
		s.sendError(w, http.StatusBadRequest, "No active clients configured")
		return
	}

	metrics.IncFleetRuns()

	results, err := s.aggregator.Fleet(r.Context(), tenants, rng)
	if err != nil {
		if errors.Is(err, report.ErrNoActiveTenants) {
			s.sendError(w, http.StatusBadRequest, "No active clients configured")
			return
		}
		// Tenant failures are folded into their result slots; reaching
		// this branch means a defect escaped an aggregation goroutine.
		s.logger.Error("fleet aggregation failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	s.sendJSON(w, http.StatusOK, MetricsResponse{Metrics: results})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       s.version,
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Tenants:       len(s.registry.All()),
		ActiveTenants: len(s.registry.Active()),
	})
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
