// Package monitoring tracks enrichment health: per-run Prometheus metrics and
// alerting over the recent run history kept by the audit store.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/internal/store"
)

// Snapshot holds a point-in-time view of enrichment health.
type Snapshot struct {
	// Run metrics (within lookback window).
	RunsTotal       int     `json:"runs_total"`
	RunsComplete    int     `json:"runs_complete"`
	RunsFailed      int     `json:"runs_failed"`
	RunsInterrupted int     `json:"runs_interrupted"`
	RunsRunning     int     `json:"runs_running"`
	RunFailRate     float64 `json:"run_fail_rate"`

	// Lookup metrics summed over finished runs.
	Lookups        int     `json:"lookups"`
	Resolved       int     `json:"resolved"`
	NotFound       int     `json:"not_found"`
	LookupFailed   int     `json:"lookup_failed"`
	LookupFailRate float64 `json:"lookup_fail_rate"`
	Pending        int     `json:"pending"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers health snapshots from the run audit store.
type Collector struct {
	runs RunLister
}

// NewCollector creates a new collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		StartedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusInterrupted:
			snap.RunsInterrupted++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}
		if r.Summary != nil {
			snap.Lookups += r.Summary.Lookups()
			snap.Resolved += r.Summary.Resolved
			snap.NotFound += r.Summary.NotFound
			snap.LookupFailed += r.Summary.Failed
			snap.Pending += r.Summary.Pending
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed + snap.RunsInterrupted; finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.Lookups > 0 {
		snap.LookupFailRate = float64(snap.NotFound+snap.LookupFailed) / float64(snap.Lookups)
	}

	return snap, nil
}
