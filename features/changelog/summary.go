package changelog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("changelog not found")

type Summary struct {
	ID         int64     `json:"id"`
	Summary    string    `json:"summary"`
	RunID      string    `json:"run_id"`
	ChunkIndex int       `json:"chunk_index"`
	SourceRef  string    `json:"source_ref"`
	SourceHash string    `json:"source_hash"`
	CreatedAt  time.Time `json:"created_at"`
}
