// Package metrics exposes Prometheus instrumentation for the dashboard
// service.
package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for campdash
type Metrics struct {
	// Aggregation pipeline
	TenantFetchFailedTotal     *prometheus.CounterVec
	AggregationDurationSeconds *prometheus.HistogramVec
	FleetRunsTotal             prometheus.Counter

	// Tenant registry gauges
	TenantsConfigured prometheus.Gauge
	TenantsActive     prometheus.Gauge

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	// System metrics
	UptimeSeconds prometheus.Gauge
	Goroutines    prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TenantFetchFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campdash_tenant_fetch_failed_total",
				Help: "Total number of per-tenant aggregations that ended in an error aggregate",
			},
			[]string{"tenant"},
		),
		AggregationDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campdash_aggregation_duration_seconds",
				Help:    "Duration of one tenant's fetch-normalize-reduce cycle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tenant"},
		),
		FleetRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campdash_fleet_runs_total",
				Help: "Total number of fleet-wide aggregation runs",
			},
		),

		TenantsConfigured: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "campdash_tenants_configured",
				Help: "Number of tenants in the static registry",
			},
		),
		TenantsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "campdash_tenants_active",
				Help: "Number of tenants with a credential configured",
			},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campdash_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campdash_api_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "campdash_uptime_seconds",
				Help: "Time since the service started",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "campdash_goroutines",
				Help: "Number of goroutines",
			},
		),

		registry:  reg,
		startTime: time.Now(),
	}

	reg.MustRegister(
		m.TenantFetchFailedTotal,
		m.AggregationDurationSeconds,
		m.FleetRunsTotal,
		m.TenantsConfigured,
		m.TenantsActive,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.UptimeSeconds,
		m.Goroutines,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateSystemMetrics refreshes the uptime and goroutine gauges.
func (m *Metrics) UpdateSystemMetrics() {
	m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
	m.Goroutines.Set(float64(runtime.NumGoroutine()))
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncTenantFetchFailed increments the failed aggregation counter
func IncTenantFetchFailed(tenant string) {
	m := Global()
	if m != nil {
		m.TenantFetchFailedTotal.WithLabelValues(tenant).Inc()
	}
}

// ObserveAggregation records the duration of one tenant aggregation
func ObserveAggregation(tenant string, seconds float64) {
	m := Global()
	if m != nil {
		m.AggregationDurationSeconds.WithLabelValues(tenant).Observe(seconds)
	}
}

// IncFleetRuns increments the fleet run counter
func IncFleetRuns() {
	m := Global()
	if m != nil {
		m.FleetRunsTotal.Inc()
	}
}

// SetTenantCounts updates the tenant registry gauges
func SetTenantCounts(configured, active int) {
	m := Global()
	if m != nil {
		m.TenantsConfigured.Set(float64(configured))
		m.TenantsActive.Set(float64(active))
	}
}
