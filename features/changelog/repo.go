package changelog

import (
	"context"
	"database/sql"
	"errors"

	"changelog-digest/internal/store"
)

type Repository interface {
	Insert(ctx context.Context, s *Summary) error
	FindLatest(ctx context.Context) (*Summary, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	conn *store.Conn
}

func NewPostgresRepo(conn *store.Conn) *PostgresRepo {
	return &PostgresRepo{conn: conn}
}

func (r *PostgresRepo) Insert(ctx context.Context, s *Summary) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	query := `INSERT INTO summaries (summary, run_id, chunk_index, source_ref, source_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return db.QueryRowContext(ctx, query, s.Summary, s.RunID, s.ChunkIndex, s.SourceRef, s.SourceHash, s.CreatedAt).Scan(&s.ID)
}

// FindLatest returns the most recent summary. Records of one run share a
// timestamp, so the highest id breaks the tie.
func (r *PostgresRepo) FindLatest(ctx context.Context) (*Summary, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	s := &Summary{}
	query := `SELECT id, summary, run_id, chunk_index, source_ref, source_hash, created_at FROM summaries ORDER BY created_at DESC, id DESC LIMIT 1`
	err = db.QueryRowContext(ctx, query).Scan(&s.ID, &s.Summary, &s.RunID, &s.ChunkIndex, &s.SourceRef, &s.SourceHash, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	db, err := r.conn.DB()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries`).Scan(&count)
	return count, err
}
