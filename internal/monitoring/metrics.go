package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/biz-in-support/bizmap/internal/model"
)

// Record states reported by the bizmap_records gauge.
const (
	StateLoaded   = "loaded"
	StateRemoved  = "removed"
	StateSkipped  = "skipped"
	StateResolved = "resolved"
	StateNotFound = "not_found"
	StateFailed   = "failed"
	StatePending  = "pending"
)

// Metrics holds the Prometheus collectors for one enrichment run. Each run
// gets its own registry so a textfile export reflects that run only.
type Metrics struct {
	Registry *prometheus.Registry

	Lookups        *prometheus.CounterVec
	Retries        prometheus.Counter
	LookupDuration prometheus.Histogram
	Records        *prometheus.GaugeVec
}

// NewMetrics registers the run collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizmap_lookups_total",
				Help: "Geocoding lookups by outcome.",
			},
			[]string{"outcome"},
		),
		Retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bizmap_lookup_retries_total",
				Help: "Lookup attempts retried after a transient failure.",
			},
		),
		LookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bizmap_lookup_duration_seconds",
				Help:    "Wall time of one lookup including throttle waits and retries.",
				Buckets: []float64{0.1, 0.5, 1, 1.5, 2, 5, 10, 30},
			},
		),
		Records: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bizmap_records",
				Help: "Records in the last run by state.",
			},
			[]string{"state"},
		),
	}
}

// ObserveOutcome counts a resolver outcome. Skipped records issue no lookup
// and are not counted.
func (m *Metrics) ObserveOutcome(o model.Outcome) {
	if o.Kind == model.OutcomeSkipped {
		return
	}
	m.Lookups.WithLabelValues(string(o.Kind)).Inc()
}

// ObserveLookup records how long one lookup took.
func (m *Metrics) ObserveLookup(d time.Duration) {
	m.LookupDuration.Observe(d.Seconds())
}

// OnRetry matches resilience.RetryConfig.OnRetry.
func (m *Metrics) OnRetry(int, error) {
	m.Retries.Inc()
}

// SetSummary publishes the final record counts.
func (m *Metrics) SetSummary(s model.Summary) {
	m.Records.WithLabelValues(StateLoaded).Set(float64(s.Loaded))
	m.Records.WithLabelValues(StateRemoved).Set(float64(s.Removed))
	m.Records.WithLabelValues(StateSkipped).Set(float64(s.Skipped))
	m.Records.WithLabelValues(StateResolved).Set(float64(s.Resolved))
	m.Records.WithLabelValues(StateNotFound).Set(float64(s.NotFound))
	m.Records.WithLabelValues(StateFailed).Set(float64(s.Failed))
	m.Records.WithLabelValues(StatePending).Set(float64(s.Pending))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return eris.Wrapf(err, "monitoring: write metrics %s", path)
	}
	return nil
}
