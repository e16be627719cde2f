package run_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changelog-digest/features/run"
	"changelog-digest/internal/store"
)

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := run.NewPostgresRepo(store.NewConnWithDB(db))
	start := time.Now()
	r := &run.Run{
		ID:         "run-1",
		Trigger:    "schedule",
		Status:     "partial",
		Chunks:     3,
		Committed:  2,
		Skipped:    1,
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs (id, trigger, status, chunks, committed, skipped, rejected, error, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)")).
		WithArgs(r.ID, r.Trigger, r.Status, r.Chunks, r.Committed, r.Skipped, r.Rejected, r.Error, r.StartedAt, r.FinishedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := run.NewPostgresRepo(store.NewConnWithDB(db))
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "trigger", "status", "chunks", "committed", "skipped", "rejected", "error", "started_at", "finished_at"}).
		AddRow("run-2", "read", "succeeded", 3, 3, 0, 0, "", now, now).
		AddRow("run-1", "schedule", "failed", 0, 0, 0, 0, "fetch failed", now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, trigger, status, chunks, committed, skipped, rejected, error, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	runs, err := repo.List(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "fetch failed", runs[1].Error)
}

func TestPostgresRepo_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := run.NewPostgresRepo(store.NewConnWithDB(db))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM runs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPostgresRepo_Unavailable(t *testing.T) {
	repo := run.NewPostgresRepo(store.NewConn())
	ctx := context.Background()

	assert.ErrorIs(t, repo.Save(ctx, &run.Run{}), store.ErrUnavailable)
	_, err := repo.List(ctx, 10)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	_, err = repo.Count(ctx)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
