package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biz-in-support/bizmap/internal/model"
)

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	run, err := st.CreateRun(context.Background(), "in.csv", "out.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestOpen_None(t *testing.T) {
	st, err := Open(context.Background(), DriverNone, "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, st)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var st Store = Nop{}

	run, err := st.CreateRun(ctx, "in.csv", "out.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	assert.NoError(t, st.AddDiagnostics(ctx, run.ID, []model.Diagnostic{{Business: "A"}}))
	assert.NoError(t, st.FinishRun(ctx, run.ID, model.RunStatusComplete, &model.Summary{}, ""))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = st.GetRun(ctx, run.ID)
	assert.Error(t, err)
	assert.NoError(t, st.Close())
}
