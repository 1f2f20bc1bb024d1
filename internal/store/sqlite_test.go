package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biz-in-support/bizmap/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "data.csv", "data_enriched.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "data.csv", got.InputPath)
	assert.Equal(t, "data_enriched.csv", got.OutputPath)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.FinishedAt)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)
}

func TestSQLite_FinishRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "in.csv", "out.csv")
	require.NoError(t, err)

	summary := &model.Summary{
		RunID:      run.ID,
		Loaded:     4,
		Removed:    1,
		Resolved:   2,
		NotFound:   1,
		Unresolved: []string{"Nowhere LLC"},
		OutputPath: "out.csv",
	}
	require.NoError(t, st.FinishRun(ctx, run.ID, model.RunStatusComplete, summary, ""))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, *summary, *got.Summary)
	require.NotNil(t, got.FinishedAt)
	assert.Empty(t, got.Error)
}

func TestSQLite_FinishRun_WithError(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "in.csv", "out.csv")
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, run.ID, model.RunStatusFailed, nil, "write out.csv: disk full"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "write out.csv: disk full", got.Error)
	assert.Nil(t, got.Summary)
}

func TestSQLite_FinishRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.FinishRun(context.Background(), "missing", model.RunStatusComplete, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, "in.csv", "out.csv")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, st.FinishRun(ctx, ids[0], model.RunStatusComplete, &model.Summary{}, ""))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[0], runs[2].ID)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, ids[0], complete[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[1], limited[0].ID)

	future, err := st.ListRuns(ctx, RunFilter{StartedAfter: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestSQLite_Diagnostics(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "in.csv", "out.csv")
	require.NoError(t, err)

	require.NoError(t, st.AddDiagnostics(ctx, run.ID, nil))
	require.NoError(t, st.AddDiagnostics(ctx, run.ID, []model.Diagnostic{
		{Business: "Nowhere LLC", Query: "999 Nowhere Ave, Utah", Kind: model.DiagnosticNotFound},
		{Business: "Flaky", Query: "1 Flaky Way, Utah", Kind: model.DiagnosticFailed, Detail: "status 503"},
	}))

	diags, err := st.ListDiagnostics(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "Nowhere LLC", diags[0].Business)
	assert.Equal(t, model.DiagnosticNotFound, diags[0].Kind)
	assert.Equal(t, run.ID, diags[0].RunID)
	assert.NotEmpty(t, diags[0].ID)
	assert.Equal(t, "status 503", diags[1].Detail)

	other, err := st.ListDiagnostics(ctx, "other-run")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}
