package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/biz-in-support/bizmap/internal/config"
	"github.com/biz-in-support/bizmap/internal/monitoring"
	"github.com/biz-in-support/bizmap/internal/resilience"
	"github.com/biz-in-support/bizmap/internal/resolve"
	"github.com/biz-in-support/bizmap/pkg/geocode"
)

// Provider names accepted in geocode.provider.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// NewProvider builds the bare lookup client named by cfg.Provider.
func NewProvider(cfg config.GeocodeConfig, hc *http.Client) (geocode.Lookuper, error) {
	var opts []geocode.Option
	if hc != nil {
		opts = append(opts, geocode.WithHTTPClient(hc))
	}

	switch cfg.Provider {
	case "", ProviderNominatim:
		opts = append(opts,
			geocode.WithBaseURL(cfg.Nominatim.BaseURL),
			geocode.WithUserAgent(cfg.Nominatim.UserAgent),
			geocode.WithEmail(cfg.Nominatim.Email),
		)
		return geocode.NewNominatim(opts...), nil
	case ProviderGoogle:
		if cfg.Google.Key == "" {
			return nil, eris.New("pipeline: geocode.google.key is required for the google provider")
		}
		opts = append(opts,
			geocode.WithBaseURL(cfg.Google.BaseURL),
			geocode.WithAPIKey(cfg.Google.Key),
		)
		return geocode.NewGoogle(opts...), nil
	default:
		return nil, eris.Errorf("pipeline: unknown geocode provider %q", cfg.Provider)
	}
}

// NewResolver assembles the full lookup chain for a run: provider, shared
// throttle with retries, and lookup timing when metrics are collected.
func NewResolver(cfg *config.Config, hc *http.Client, metrics *monitoring.Metrics) (*resolve.Resolver, error) {
	provider, err := NewProvider(cfg.Geocode, hc)
	if err != nil {
		return nil, err
	}

	onRetry := resilience.RetryLogger("geocode", "lookup")
	if metrics != nil {
		logRetry := onRetry
		onRetry = func(attempt int, err error) {
			logRetry(attempt, err)
			metrics.OnRetry(attempt, err)
		}
	}

	throttle := resilience.NewThrottle(resilience.ThrottleConfig{
		MinDelay:   cfg.Resolver.MinDelay(),
		MaxRetries: cfg.Resolver.MaxRetries,
		ErrorWait:  cfg.Resolver.ErrorWait(),
		OnRetry:    onRetry,
	})

	var lookup geocode.Lookuper = geocode.NewRateLimited(provider, throttle)
	if metrics != nil {
		lookup = &timedLookuper{inner: lookup, metrics: metrics}
	}

	return resolve.New(lookup, resolve.Config{
		RegionQualifier:    cfg.Resolver.RegionQualifier,
		Timeout:            cfg.Resolver.Timeout(),
		UnknownCountyLabel: cfg.Resolver.UnknownCountyLabel,
	}), nil
}

type timedLookuper struct {
	inner   geocode.Lookuper
	metrics *monitoring.Metrics
}

func (t *timedLookuper) Lookup(ctx context.Context, query string, opts geocode.LookupOptions) (*geocode.Place, error) {
	start := time.Now()
	defer func() { t.metrics.ObserveLookup(time.Since(start)) }()
	return t.inner.Lookup(ctx, query, opts)
}
