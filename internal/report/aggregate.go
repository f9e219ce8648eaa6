// Package report implements the metrics-aggregation pipeline: per-tenant
// campaign fetching, normalization, and the fleet-wide fan-out.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/mailfleet/campdash/internal/klaviyo"
	"github.com/mailfleet/campdash/internal/metrics"
	"github.com/mailfleet/campdash/internal/tenant"
)

// Status tags a TenantMetrics as a success or error aggregate.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// TenantMetrics is the per-tenant aggregate returned to the dashboard.
// When Status is StatusError only the identity fields and Error are set;
// when it is StatusSuccess, Error is empty and Campaigns is populated.
type TenantMetrics struct {
	TenantID         string            `json:"tenantId"`
	TenantName       string            `json:"tenantName"`
	Color            string            `json:"color,omitempty"`
	TotalCampaigns   int               `json:"totalCampaigns"`
	TotalRecipients  int               `json:"totalRecipients"`
	TotalOpens       int               `json:"totalOpens"`
	TotalClicks      int               `json:"totalClicks"`
	AvgOpenRate      float64           `json:"avgOpenRate"`
	AvgClickRate     float64           `json:"avgClickRate"`
	LastCampaignDate string            `json:"lastCampaignDate,omitempty"`
	Status           Status            `json:"status"`
	Error            string            `json:"error,omitempty"`
	Campaigns        []CampaignMetrics `json:"campaigns,omitempty"`
}

// Fetcher is the slice of the Klaviyo client the aggregator needs.
type Fetcher interface {
	FetchCampaigns(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error)
	FetchCampaignMetrics(ctx context.Context, campaignID, apiKey string) (*klaviyo.MetricRecord, error)
}

// Config configures an Aggregator.
type Config struct {
	// IncludeEngagement fetches per-campaign engagement counters with one
	// extra upstream call per campaign. Off by default: the campaign
	// listing does not embed counters, so they stay zero.
	IncludeEngagement bool

	// MaxConcurrent bounds the fleet fan-out. 0 means one goroutine per
	// tenant with no cap.
	MaxConcurrent int

	// Now is the clock used to resolve date ranges. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator drives the fetch, normalize, reduce sequence for tenants.
type Aggregator struct {
	client Fetcher
	cfg    Config
	logger *slog.Logger
}

// NewAggregator creates an Aggregator on top of a Klaviyo client.
func NewAggregator(client Fetcher, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "aggregator"),
	}
}

// Aggregate produces the metrics aggregate for one tenant. It never
// returns an error: any failure during fetching or normalization is
// folded into an error-status TenantMetrics, so one tenant's outage
// cannot block the rest of the fleet.
func (a *Aggregator) Aggregate(ctx context.Context, t tenant.Tenant, rng Range) TenantMetrics {
	start := time.Now()
	tm, err := a.collect(ctx, t, rng)
	metrics.ObserveAggregation(t.ID, time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn("tenant aggregation failed",
			"tenant", t.ID,
			"range", string(rng),
			"error", err,
		)
		metrics.IncTenantFetchFailed(t.ID)
		return TenantMetrics{
			TenantID:   t.ID,
			TenantName: t.Name,
			Color:      t.Color,
			Status:     StatusError,
			Error:      err.Error(),
		}
	}
	return tm
}

func (a *Aggregator) collect(ctx context.Context, t tenant.Tenant, rng Range) (TenantMetrics, error) {
	window := ResolveWindow(rng, a.cfg.Now())

	raw, err := a.client.FetchCampaigns(ctx, t.Credential, window)
	if err != nil {
		return TenantMetrics{}, err
	}

	campaigns := make([]CampaignMetrics, 0, len(raw))
	for _, rc := range raw {
		var record *klaviyo.MetricRecord
		if a.cfg.IncludeEngagement {
			record, err = a.client.FetchCampaignMetrics(ctx, rc.ID, t.Credential)
			if err != nil {
				return TenantMetrics{}, err
			}
		}
		campaigns = append(campaigns, NormalizeCampaign(rc, record))
	}

	tm := reduce(campaigns)
	tm.TenantID = t.ID
	tm.TenantName = t.Name
	tm.Color = t.Color
	return tm, nil
}

// reduce folds normalized campaigns into a success aggregate. Average
// rates are unweighted means of the per-campaign rates, not
// recipient-weighted.
func reduce(campaigns []CampaignMetrics) TenantMetrics {
	tm := TenantMetrics{
		Status:         StatusSuccess,
		TotalCampaigns: len(campaigns),
		Campaigns:      campaigns,
	}

	var openRateSum, clickRateSum float64
	var last time.Time
	for _, c := range campaigns {
		tm.TotalRecipients += c.Recipients
		tm.TotalOpens += c.Opens
		tm.TotalClicks += c.Clicks
		openRateSum += c.OpenRate
		clickRateSum += c.ClickRate

		if t, ok := sentAtTime(c); ok && t.After(last) {
			last = t
			tm.LastCampaignDate = c.SentAt
		}
	}

	if tm.TotalCampaigns > 0 {
		tm.AvgOpenRate = openRateSum / float64(tm.TotalCampaigns)
		tm.AvgClickRate = clickRateSum / float64(tm.TotalCampaigns)
	}

	return tm
}
