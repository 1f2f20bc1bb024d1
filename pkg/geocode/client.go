// Package geocode resolves free-text addresses into coordinates and
// structured address components via Nominatim (primary) or Google.
package geocode

import (
	"context"
	"net/http"
	"time"
)

// Lookuper resolves a single free-text query. A nil Place with a nil error
// means the service answered but found no match.
type Lookuper interface {
	Lookup(ctx context.Context, query string, opts LookupOptions) (*Place, error)
}

// LookupOptions controls a single lookup.
type LookupOptions struct {
	// AddressDetails asks the service for structured address components.
	AddressDetails bool
	// Timeout bounds one call. Zero means the HTTP client's own timeout.
	Timeout time.Duration
}

// Place is a matched location.
type Place struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	// Address holds structured components keyed the Nominatim way
	// ("county", "state", "city", "postcode", "country", ...).
	Address map[string]string
	Source  string // "nominatim" or "google"
}

// County returns the administrative-area component, or fallback when absent.
func (p *Place) County(fallback string) string {
	if p == nil || p.Address == nil {
		return fallback
	}
	if c := p.Address["county"]; c != "" {
		return c
	}
	return fallback
}

// Option configures a provider client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
	apiKey     string
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying one.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithEmail sets the contact email passed to Nominatim.
func WithEmail(email string) Option {
	return func(o *options) {
		o.email = email
	}
}

// WithAPIKey sets the Google Geocoding API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

func buildOptions(defaultBaseURL string, opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  "bizmap-enrich/1.0",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// withCallTimeout derives the per-call context.
func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
