package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mailfleet/campdash/internal/klaviyo"
	"github.com/mailfleet/campdash/internal/tenant"
)

func fleetTenants(n int) []tenant.Tenant {
	tenants := make([]tenant.Tenant, n)
	for i := range tenants {
		id := string(rune('a' + i))
		tenants[i] = tenant.Tenant{ID: id, Name: "Tenant " + id, Credential: "pk_" + id}
	}
	return tenants
}

func TestFleetEmptyTenantSet(t *testing.T) {
	agg := NewAggregator(&fakeFetcher{}, Config{}, discardLogger())

	_, err := agg.Fleet(context.Background(), nil, RangeAll)
	if !errors.Is(err, ErrNoActiveTenants) {
		t.Errorf("Fleet(empty) error = %v, want ErrNoActiveTenants", err)
	}
}

func TestFleetPreservesInputOrder(t *testing.T) {
	// Earlier tenants respond slower; order must still match input.
	delays := map[string]time.Duration{"pk_a": 30 * time.Millisecond, "pk_b": 15 * time.Millisecond, "pk_c": 0}
	fetcher := &fakeFetcher{
		fetchCampaigns: func(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error) {
			time.Sleep(delays[apiKey])
			return nil, nil
		},
	}

	agg := NewAggregator(fetcher, Config{}, discardLogger())
	tenants := fleetTenants(3)

	results, err := agg.Fleet(context.Background(), tenants, RangeAll)
	if err != nil {
		t.Fatalf("Fleet() error = %v", err)
	}
	if len(results) != len(tenants) {
		t.Fatalf("results = %d, want %d", len(results), len(tenants))
	}
	for i, tn := range tenants {
		if results[i].TenantID != tn.ID {
			t.Errorf("results[%d].TenantID = %q, want %q", i, results[i].TenantID, tn.ID)
		}
	}
}

func TestFleetPartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		fetchCampaigns: func(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error) {
			if apiKey == "pk_a" {
				return nil, &klaviyo.APIError{StatusCode: 401, Body: "unauthorized"}
			}
			return []klaviyo.Campaign{rawCampaign("c1", "OK", "sent", "")}, nil
		},
	}

	agg := NewAggregator(fetcher, Config{}, discardLogger())
	results, err := agg.Fleet(context.Background(), fleetTenants(2), RangeAll)
	if err != nil {
		t.Fatalf("Fleet() error = %v, want nil despite tenant failure", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	if results[0].Status != StatusError || results[0].Error == "" {
		t.Errorf("results[0] = %+v, want error status with message", results[0])
	}
	if results[1].Status != StatusSuccess {
		t.Errorf("results[1].Status = %q, want success", results[1].Status)
	}
}

func TestFleetAllFail(t *testing.T) {
	fetcher := &fakeFetcher{
		fetchCampaigns: func(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error) {
			return nil, &klaviyo.APIError{StatusCode: 503, Body: "down"}
		},
	}

	agg := NewAggregator(fetcher, Config{}, discardLogger())
	results, err := agg.Fleet(context.Background(), fleetTenants(3), RangeAll)
	if err != nil {
		t.Fatalf("Fleet() error = %v, want nil", err)
	}
	for i, r := range results {
		if r.Status != StatusError {
			t.Errorf("results[%d].Status = %q, want error", i, r.Status)
		}
		if r.Campaigns != nil {
			t.Errorf("results[%d].Campaigns present on error", i)
		}
	}
}

func TestFleetDefectEscapes(t *testing.T) {
	fetcher := &fakeFetcher{
		fetchCampaigns: func(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error) {
			panic("boom")
		},
	}

	agg := NewAggregator(fetcher, Config{}, discardLogger())
	_, err := agg.Fleet(context.Background(), fleetTenants(2), RangeAll)
	if err == nil {
		t.Fatal("Fleet() error = nil, want defect error")
	}
	if errors.Is(err, ErrNoActiveTenants) {
		t.Errorf("Fleet() error = %v, want a distinct defect error", err)
	}
}

func TestFleetBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	fetcher := &fakeFetcher{
		fetchCampaigns: func(ctx context.Context, apiKey string, filter klaviyo.Filter) ([]klaviyo.Campaign, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil, nil
		},
	}

	agg := NewAggregator(fetcher, Config{MaxConcurrent: 2}, discardLogger())
	if _, err := agg.Fleet(context.Background(), fleetTenants(6), RangeAll); err != nil {
		t.Fatalf("Fleet() error = %v", err)
	}

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", peak)
	}
}
