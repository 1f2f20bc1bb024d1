// Package pipeline runs one enrichment pass: load, clean, resolve, write.
package pipeline

import (
	"context"
	"os"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/internal/monitoring"
	"github.com/biz-in-support/bizmap/internal/resolve"
	"github.com/biz-in-support/bizmap/internal/store"
)

// Options controls a single run.
type Options struct {
	InputPath  string
	OutputPath string
	// Dataset carries the input encoding and header offset. The output is
	// written in the same encoding with no preamble.
	Dataset  dataset.Options
	Sentinel string
	// Resume reads the existing output file instead of the input when it
	// exists, so a previous partial run's progress is kept.
	Resume bool
	// Limit caps the number of lookups in this run. Zero means no cap.
	Limit int
	// CheckpointEvery rewrites the output after every K lookups. Zero
	// writes only at the end of the run.
	CheckpointEvery int
	// DryRun loads and cleans only.
	DryRun bool
}

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = eris.New("pipeline: output is locked by another run")

// Pipeline wires the resolver to the run audit store and metrics.
type Pipeline struct {
	resolver *resolve.Resolver
	store    store.Store
	metrics  *monitoring.Metrics
}

// New creates a Pipeline. A nil store records nothing; nil metrics are
// not collected.
func New(resolver *resolve.Resolver, st store.Store, metrics *monitoring.Metrics) *Pipeline {
	if st == nil {
		st = store.Nop{}
	}
	return &Pipeline{resolver: resolver, store: st, metrics: metrics}
}

// Run executes one pass. Record-level lookup failures never fail the run;
// load and write failures do. When ctx is cancelled mid-run the records
// resolved so far are written before Run returns ctx's error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.Summary, error) {
	log := zap.L().With(zap.String("input", opts.InputPath), zap.String("output", opts.OutputPath))

	if opts.DryRun {
		return p.dryRun(ctx, opts)
	}

	lock := flock.New(opts.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: acquire output lock")
	}
	if !locked {
		log.Error("pipeline: output lock held", zap.String("lock", lock.Path()))
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("pipeline: release output lock", zap.Error(err))
		}
	}()

	// Audit and final writes must outlive a cancelled run.
	bg := context.WithoutCancel(ctx)

	st := p.store
	run, err := st.CreateRun(bg, opts.InputPath, opts.OutputPath)
	if err != nil {
		log.Warn("pipeline: audit store unavailable, continuing without it", zap.Error(err))
		st = store.Nop{}
		run, _ = st.CreateRun(bg, opts.InputPath, opts.OutputPath)
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting enrichment")

	table, report, err := load(ctx, opts)
	if err != nil {
		p.finish(bg, st, run.ID, model.RunStatusFailed, nil, err)
		return nil, err
	}

	summary := &model.Summary{
		RunID:      run.ID,
		Loaded:     report.Before,
		Removed:    report.Removed,
		OutputPath: opts.OutputPath,
	}
	tracker := newTracker(p, st, run.ID, opts, table, summary)

	resolved, resolveErr := p.resolver.ResolveAll(ctx, table.Records, resolve.Options{
		Limit:    opts.Limit,
		Observer: tracker.observe,
	})
	table.Records = resolved
	summary.Pending = len(resolved) - tracker.observed

	tracker.flushDiagnostics(bg)

	if err := dataset.Write(opts.OutputPath, table, opts.Dataset); err != nil {
		p.finish(bg, st, run.ID, model.RunStatusFailed, summary, err)
		return summary, err
	}

	if p.metrics != nil {
		p.metrics.SetSummary(*summary)
	}

	if resolveErr != nil {
		log.Warn("pipeline: run interrupted, partial progress written",
			zap.Int("pending", summary.Pending),
			zap.Error(resolveErr),
		)
		p.finish(bg, st, run.ID, model.RunStatusInterrupted, summary, resolveErr)
		return summary, resolveErr
	}

	p.finish(bg, st, run.ID, model.RunStatusComplete, summary, nil)
	log.Info("pipeline: enrichment complete",
		zap.Int("loaded", summary.Loaded),
		zap.Int("removed", summary.Removed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("resolved", summary.Resolved),
		zap.Int("not_found", summary.NotFound),
		zap.Int("failed", summary.Failed),
		zap.Int("pending", summary.Pending),
	)
	return summary, nil
}

func (p *Pipeline) dryRun(ctx context.Context, opts Options) (*model.Summary, error) {
	table, report, err := load(ctx, opts)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{
		Loaded:     report.Before,
		Removed:    report.Removed,
		OutputPath: opts.OutputPath,
	}
	for _, rec := range table.Records {
		if rec.Resolved() {
			summary.Skipped++
		} else {
			summary.Pending++
		}
	}
	return summary, nil
}

func (p *Pipeline) finish(ctx context.Context, st store.Store, runID string, status model.RunStatus, summary *model.Summary, runErr error) {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := st.FinishRun(ctx, runID, status, summary, msg); err != nil {
		zap.L().Warn("pipeline: record run result", zap.String("run_id", runID), zap.Error(err))
	}
}

// load reads and cleans the table. With Resume set and an existing output
// file, the output is read instead of the input.
func load(ctx context.Context, opts Options) (*model.Table, dataset.CleanReport, error) {
	path, dsOpts := opts.InputPath, opts.Dataset
	if opts.Resume {
		if _, err := os.Stat(opts.OutputPath); err == nil {
			path = opts.OutputPath
			dsOpts.HeaderRow = 0
			zap.L().Info("pipeline: resuming from previous output", zap.String("path", path))
		}
	}

	table, err := dataset.Load(ctx, path, dsOpts)
	if err != nil {
		return nil, dataset.CleanReport{}, err
	}
	records, report := dataset.Clean(table.Records, opts.Sentinel)
	table.Records = records
	return table, report, nil
}
