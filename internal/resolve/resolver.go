// Package resolve turns cleaned business records into geocoded records, one
// lookup per unresolved record, in input order.
package resolve

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/pkg/geocode"
)

// Config controls how queries are built and interpreted.
type Config struct {
	// RegionQualifier is appended to every address ("Utah"). Empty omits it.
	RegionQualifier string
	// Timeout bounds a single lookup call.
	Timeout time.Duration
	// UnknownCountyLabel is used when a match carries no county component.
	UnknownCountyLabel string
}

// Resolver geocodes records through a Lookuper. Rate limiting and retries
// belong to the Lookuper (see geocode.RateLimited).
type Resolver struct {
	lookup geocode.Lookuper
	cfg    Config
}

// New creates a Resolver.
func New(lookup geocode.Lookuper, cfg Config) *Resolver {
	if cfg.UnknownCountyLabel == "" {
		cfg.UnknownCountyLabel = "Unknown"
	}
	return &Resolver{lookup: lookup, cfg: cfg}
}

// Query builds the lookup query for rec.
func (r *Resolver) Query(rec model.Record) string {
	addr := strings.TrimSpace(rec.AddressText())
	if r.cfg.RegionQualifier == "" {
		return addr
	}
	return addr + ", " + r.cfg.RegionQualifier
}

// Resolve geocodes a single record. Records that already carry coordinates
// are skipped without a lookup. Lookup failures never escape: they are
// reported as OutcomeNotFound or OutcomeFailed with any partial location
// (a lone coordinate, a stale county) cleared from the record.
func (r *Resolver) Resolve(ctx context.Context, rec model.Record) model.Outcome {
	if rec.Resolved() {
		return model.Outcome{Kind: model.OutcomeSkipped, Record: rec}
	}

	query := r.Query(rec)
	log := zap.L().With(zap.String("business", rec.Business), zap.String("query", query))
	log.Info("resolve: geocoding")

	place, err := r.lookup.Lookup(ctx, query, geocode.LookupOptions{
		AddressDetails: true,
		Timeout:        r.cfg.Timeout,
	})
	if err != nil {
		log.Warn("resolve: lookup failed", zap.Error(err))
		return model.Outcome{
			Kind:   model.OutcomeFailed,
			Record: rec.WithoutLocation(),
			Query:  query,
			Reason: err.Error(),
		}
	}
	if place == nil {
		log.Warn("resolve: address not found")
		return model.Outcome{Kind: model.OutcomeNotFound, Record: rec.WithoutLocation(), Query: query}
	}

	county := place.County(r.cfg.UnknownCountyLabel)
	log.Debug("resolve: matched",
		zap.Float64("lat", place.Latitude),
		zap.Float64("lon", place.Longitude),
		zap.String("county", county),
	)
	return model.Outcome{
		Kind:   model.OutcomeResolved,
		Record: rec.WithLocation(place.Latitude, place.Longitude, county),
		Query:  query,
	}
}

// Observer is called once per processed record with its index in the input
// slice and its outcome.
type Observer func(index int, outcome model.Outcome)

// Options controls ResolveAll.
type Options struct {
	// Limit caps the number of lookups. Zero means no cap. Records past the
	// cap are returned unchanged and not observed.
	Limit int
	// Observer, when set, sees every outcome in order.
	Observer Observer
}

// ResolveAll resolves records in order and returns a new slice of the same
// length. It stops early only when ctx is cancelled, in which case the
// returned slice holds the records processed so far followed by the
// untouched remainder, along with ctx's error.
func (r *Resolver) ResolveAll(ctx context.Context, records []model.Record, opts Options) ([]model.Record, error) {
	out := make([]model.Record, len(records))
	copy(out, records)

	lookups := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if !rec.Resolved() && opts.Limit > 0 && lookups >= opts.Limit {
			continue
		}

		outcome := r.Resolve(ctx, rec)
		if outcome.Kind == model.OutcomeFailed && ctx.Err() != nil {
			// Interrupted mid-lookup: leave the record for the next run.
			return out, ctx.Err()
		}
		if outcome.Kind != model.OutcomeSkipped {
			lookups++
		}

		out[i] = outcome.Record
		if opts.Observer != nil {
			opts.Observer(i, outcome)
		}
	}
	return out, nil
}
