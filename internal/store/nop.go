package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/biz-in-support/bizmap/internal/model"
)

// Nop is a Store that records nothing. CreateRun still hands out a run id
// so summaries stay traceable in logs.
type Nop struct{}

func (Nop) CreateRun(_ context.Context, inputPath, outputPath string) (*model.Run, error) {
	return &model.Run{
		ID:         uuid.New().String(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}, nil
}

func (Nop) FinishRun(context.Context, string, model.RunStatus, *model.Summary, string) error {
	return nil
}

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) AddDiagnostics(context.Context, string, []model.Diagnostic) error { return nil }

func (Nop) ListDiagnostics(context.Context, string) ([]model.Diagnostic, error) { return nil, nil }

func (Nop) Migrate(context.Context) error { return nil }

func (Nop) Close() error { return nil }
