package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"changelog-digest/internal/text"
)

// RawDocument is the upstream file as fetched for one run.
type RawDocument struct {
	Source  string
	Content string
	SHA     string
}

// NewRawDocument builds a document and computes its content digest.
func NewRawDocument(source, content string) *RawDocument {
	sum := sha256.Sum256([]byte(content))
	return &RawDocument{Source: source, Content: content, SHA: hex.EncodeToString(sum[:])}
}

// Record is a summary as the pipeline commits it.
type Record struct {
	Summary    string
	RunID      string
	ChunkIndex int
	SourceRef  string
	SourceHash string
	CreatedAt  time.Time
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Report describes a finished run.
type Report struct {
	RunID      string
	Trigger    string
	Status     Status
	Chunks     int
	Committed  int
	Skipped    int
	Rejected   int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

type Fetcher interface {
	Fetch(ctx context.Context) (*RawDocument, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, chunk string) (string, error)
}

// SummaryStore is the part of the summary repository the pipeline needs.
// FindLatest returns ErrNoRecord when nothing is stored.
type SummaryStore interface {
	Insert(ctx context.Context, rec Record) error
	FindLatest(ctx context.Context) (*Record, error)
}

type RunRecorder interface {
	Record(ctx context.Context, report Report) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Candidate is a freshly produced summary awaiting the currency decision.
type Candidate struct {
	Summary  string
	Chunk    text.Chunk
	Document *RawDocument
	// Baseline is the latest stored record seen when the run started.
	Baseline *Record
}

type CurrencyFilter interface {
	IsCurrent(ctx context.Context, c Candidate) bool
}

// SummaryCommitted is published for every record written by a run. Its
// fields mirror Record.
type SummaryCommitted struct {
	Summary    string    `json:"summary"`
	RunID      string    `json:"run_id"`
	ChunkIndex int       `json:"chunk_index"`
	SourceRef  string    `json:"source_ref"`
	SourceHash string    `json:"source_hash"`
	CreatedAt  time.Time `json:"created_at"`
}
