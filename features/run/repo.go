package run

import (
	"context"

	"changelog-digest/internal/store"
)

type Repository interface {
	Save(ctx context.Context, r *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	conn *store.Conn
}

func NewPostgresRepo(conn *store.Conn) *PostgresRepo {
	return &PostgresRepo{conn: conn}
}

func (r *PostgresRepo) Save(ctx context.Context, run *Run) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	query := `INSERT INTO runs (id, trigger, status, chunks, committed, skipped, rejected, error, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = db.ExecContext(ctx, query, run.ID, run.Trigger, run.Status, run.Chunks, run.Committed, run.Skipped, run.Rejected, run.Error, run.StartedAt, run.FinishedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Run, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	query := `SELECT id, trigger, status, chunks, committed, skipped, rejected, error, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT $1`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Trigger, &run.Status, &run.Chunks, &run.Committed, &run.Skipped, &run.Rejected, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	db, err := r.conn.DB()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}
