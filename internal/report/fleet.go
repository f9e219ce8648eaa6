package report

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mailfleet/campdash/internal/tenant"
)

// ErrNoActiveTenants is returned by Fleet when the resolved tenant set
// is empty.
var ErrNoActiveTenants = errors.New("no active tenants configured")

// Fleet runs Aggregate for every tenant concurrently and collects the
// results in input order, independent of which upstream call returns
// first. Tenant-level failures are already folded into their result
// slots by Aggregate; Fleet itself only fails when the tenant set is
// empty or when a defect (panic) escapes an aggregation goroutine.
func (a *Aggregator) Fleet(ctx context.Context, tenants []tenant.Tenant, rng Range) ([]TenantMetrics, error) {
	if len(tenants) == 0 {
		return nil, ErrNoActiveTenants
	}

	var sem chan struct{}
	if a.cfg.MaxConcurrent > 0 {
		sem = make(chan struct{}, a.cfg.MaxConcurrent)
	}

	results := make([]TenantMetrics, len(tenants))

	var wg sync.WaitGroup
	var defectMu sync.Mutex
	var defect error

	for i, t := range tenants {
		wg.Add(1)
		go func(i int, t tenant.Tenant) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					defectMu.Lock()
					if defect == nil {
						defect = fmt.Errorf("aggregation panic for tenant %s: %v", t.ID, r)
					}
					defectMu.Unlock()
				}
			}()

			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			results[i] = a.Aggregate(ctx, t, rng)
		}(i, t)
	}

	wg.Wait()

	if defect != nil {
		return nil, defect
	}
	return results, nil
}
