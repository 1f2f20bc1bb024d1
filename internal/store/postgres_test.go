package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biz-in-support/bizmap/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var runColumns = []string{"id", "input_path", "output_path", "status", "summary", "error", "started_at", "finished_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "data.csv", "data_enriched.csv", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "data.csv", "data_enriched.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1, summary = \$2, error = \$3, finished_at = \$4 WHERE id = \$5`).
		WithArgs("complete", pgxmock.AnyArg(), "", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FinishRun(context.Background(), "run-1", model.RunStatusComplete, &model.Summary{Resolved: 3}, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs`).
		WithArgs("failed", pgxmock.AnyArg(), "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", model.RunStatusFailed, nil, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)
	summary, err := json.Marshal(model.Summary{Loaded: 10, Resolved: 7, NotFound: 1, Unresolved: []string{"Nowhere LLC"}})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, input_path, output_path, status, summary, error, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-1", "data.csv", "out.csv", "complete", summary, "", started, &finished))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 7, run.Summary.Resolved)
	assert.Equal(t, []string{"Nowhere LLC"}, run.Summary.Unresolved)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, finished, *run.FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, input_path, output_path, status, summary, error, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	after := started.Add(-time.Hour)

	mock.ExpectQuery(`FROM runs WHERE true AND status = \$1 AND started_at >= \$2 ORDER BY started_at DESC LIMIT \$3`).
		WithArgs("interrupted", after, 10).
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-2", "in.csv", "out.csv", "interrupted", []byte(nil), "context canceled", started, (*time.Time)(nil)))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusInterrupted, StartedAfter: after, Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Nil(t, runs[0].Summary)
	assert.Nil(t, runs[0].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddDiagnostics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"diagnostics"}, diagnosticColumns).WillReturnResult(2)

	err := s.AddDiagnostics(context.Background(), "run-1", []model.Diagnostic{
		{Business: "Nowhere LLC", Query: "999 Nowhere Ave, Utah", Kind: model.DiagnosticNotFound},
		{Business: "Flaky", Query: "1 Flaky Way, Utah", Kind: model.DiagnosticFailed, Detail: "status 503"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddDiagnostics_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.AddDiagnostics(context.Background(), "run-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDiagnostics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, run_id, business, query, kind, detail, created_at FROM diagnostics WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_id", "business", "query", "kind", "detail", "created_at"}).
			AddRow("d1", "run-1", "Nowhere LLC", "999 Nowhere Ave, Utah", "not_found", "", created))

	diags, err := s.ListDiagnostics(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, model.DiagnosticNotFound, diags[0].Kind)
	assert.Equal(t, created, diags[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
