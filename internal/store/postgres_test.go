package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridescan/stridescan/internal/model"
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

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), string(model.RunStatusQueued), 42, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), 42)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.Equal(t, 42, run.InputLen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, status, input_len, result, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_WithResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	resultJSON := []byte(`{"report":{"summary":"ok","components":["A"],"dataFlows":null,"keywords":null,"strideCategories":[],"recommendations":null,"timestamp":""},"processedChunks":1,"totalChunks":1}`)

	mock.ExpectQuery(`SELECT id, status, input_len, result, error, created_at, updated_at FROM runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "input_len", "result", "error", "created_at", "updated_at"}).
			AddRow("run-1", model.RunStatusComplete, 10, &resultJSON, (*string)(nil), now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, run.Result)
	require.NotNil(t, run.Result.Report)
	assert.Equal(t, "ok", run.Result.Report.Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusRunning), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), string(model.RunStatusComplete), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	result := &model.AnalyzeResult{ProcessedChunks: 2, TotalChunks: 2}
	err := s.UpdateRunResult(context.Background(), "run-1", result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusFailed), "boom", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailRun(context.Background(), "run-1", "boom")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, status, input_len, result, error, created_at, updated_at FROM runs`).
		WithArgs(string(model.RunStatusComplete), 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "input_len", "result", "error", "created_at", "updated_at"}).
			AddRow("run-1", model.RunStatusComplete, 5, (*[]byte)(nil), (*string)(nil), now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
