package geocode

import (
	"context"

	"github.com/biz-in-support/bizmap/internal/resilience"
)

// RateLimited wraps a Lookuper with a shared throttle: every call, retries
// included, waits its turn, and transient failures are retried within the
// throttle's budget.
type RateLimited struct {
	inner    Lookuper
	throttle *resilience.Throttle
}

// NewRateLimited wraps inner with throttle. The same throttle may back
// several wrappers; spacing is enforced across all of them.
func NewRateLimited(inner Lookuper, throttle *resilience.Throttle) *RateLimited {
	return &RateLimited{inner: inner, throttle: throttle}
}

// Lookup implements Lookuper.
func (r *RateLimited) Lookup(ctx context.Context, query string, opts LookupOptions) (*Place, error) {
	place, _, err := resilience.Call(ctx, r.throttle, func(ctx context.Context) (*Place, error) {
		return r.inner.Lookup(ctx, query, opts)
	})
	return place, err
}
