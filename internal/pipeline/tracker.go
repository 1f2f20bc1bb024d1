package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/internal/store"
)

// tracker observes resolver outcomes: it keeps the summary counts, buffers
// diagnostics for the audit store and writes periodic checkpoints.
type tracker struct {
	p       *Pipeline
	store   store.Store
	runID   string
	opts    Options
	columns []string
	// current mirrors the records with every outcome seen so far applied.
	current []model.Record
	summary *model.Summary
	pending []model.Diagnostic

	observed        int
	sinceCheckpoint int
}

func newTracker(p *Pipeline, st store.Store, runID string, opts Options, table *model.Table, summary *model.Summary) *tracker {
	current := make([]model.Record, len(table.Records))
	copy(current, table.Records)
	return &tracker{
		p:       p,
		store:   st,
		runID:   runID,
		opts:    opts,
		columns: table.Columns,
		current: current,
		summary: summary,
	}
}

func (t *tracker) observe(index int, o model.Outcome) {
	t.observed++
	t.current[index] = o.Record

	switch o.Kind {
	case model.OutcomeSkipped:
		t.summary.Skipped++
	case model.OutcomeResolved:
		t.summary.Resolved++
	case model.OutcomeNotFound:
		t.summary.NotFound++
		t.diagnose(o, model.DiagnosticNotFound)
	case model.OutcomeFailed:
		t.summary.Failed++
		t.diagnose(o, model.DiagnosticFailed)
	}

	if t.p.metrics != nil {
		t.p.metrics.ObserveOutcome(o)
	}

	if o.Kind == model.OutcomeSkipped || t.opts.CheckpointEvery <= 0 {
		return
	}
	t.sinceCheckpoint++
	if t.sinceCheckpoint >= t.opts.CheckpointEvery {
		t.checkpoint()
	}
}

func (t *tracker) diagnose(o model.Outcome, kind model.DiagnosticKind) {
	t.summary.Unresolved = append(t.summary.Unresolved, o.Record.Business)
	t.pending = append(t.pending, model.Diagnostic{
		RunID:     t.runID,
		Business:  o.Record.Business,
		Query:     o.Query,
		Kind:      kind,
		Detail:    o.Reason,
		CreatedAt: time.Now().UTC(),
	})
}

// checkpoint writes the records seen so far to the output. A failed
// checkpoint is logged; the final write decides the run's fate.
func (t *tracker) checkpoint() {
	t.sinceCheckpoint = 0
	table := &model.Table{Columns: t.columns, Records: t.current}
	if err := dataset.Write(t.opts.OutputPath, table, t.opts.Dataset); err != nil {
		zap.L().Warn("pipeline: checkpoint failed", zap.String("run_id", t.runID), zap.Error(err))
		return
	}
	zap.L().Debug("pipeline: checkpoint written",
		zap.String("run_id", t.runID),
		zap.Int("observed", t.observed),
	)
	t.flushDiagnostics(context.Background())
}

func (t *tracker) flushDiagnostics(ctx context.Context) {
	if len(t.pending) == 0 {
		return
	}
	if err := t.store.AddDiagnostics(ctx, t.runID, t.pending); err != nil {
		zap.L().Warn("pipeline: record diagnostics", zap.String("run_id", t.runID), zap.Error(err))
		return
	}
	t.pending = t.pending[:0]
}
