// Package pipeline runs the fetch, chunk, summarize, filter and commit
// sequence and schedules it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"changelog-digest/internal/middleware"
	"changelog-digest/internal/store"
	"changelog-digest/internal/text"
)

const recordTimeout = 5 * time.Second

type Pipeline struct {
	fetcher    Fetcher
	summarizer Summarizer
	store      SummaryStore
	filter     CurrencyFilter
	chunkSize  int

	recorder RunRecorder
	events   EventPublisher
	topic    string

	now   func() time.Time
	newID func() string
}

type Option func(*Pipeline)

// WithRunRecorder persists a report after every run.
func WithRunRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithEvents publishes a SummaryCommitted message to topic for every commit.
func WithEvents(pub EventPublisher, topic string) Option {
	return func(p *Pipeline) {
		p.events = pub
		p.topic = topic
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

func New(f Fetcher, s Summarizer, st SummaryStore, filter CurrencyFilter, chunkSize int, opts ...Option) (*Pipeline, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("pipeline: %w: %d", text.ErrInvalidChunkSize, chunkSize)
	}
	if filter == nil {
		filter = AlwaysCurrent{}
	}

	p := &Pipeline{
		fetcher:    f,
		summarizer: s,
		store:      st,
		filter:     filter,
		chunkSize:  chunkSize,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one pipeline run. Chunks are processed strictly in order; a
// chunk that fails to summarize or insert is skipped and the run goes on.
// Records committed before a later failure stay committed. The returned
// error is non-nil only for run-level failures.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*Report, error) {
	report := &Report{
		RunID:     p.newID(),
		Trigger:   trigger,
		StartedAt: p.now(),
	}
	ctx = middleware.WithRunID(ctx, report.RunID)

	slog.InfoContext(ctx, "run started", "trigger", trigger)
	err := p.execute(ctx, report)
	p.finish(ctx, report, err)

	return report, err
}

func (p *Pipeline) execute(ctx context.Context, report *Report) error {
	baseline, err := p.baseline(ctx)
	if err != nil {
		return err
	}

	doc, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "document fetched", "source", doc.Source, "bytes", len(doc.Content), "source_hash", doc.SHA)

	chunks, err := text.Split(doc.Content, p.chunkSize)
	if err != nil {
		return err
	}
	report.Chunks = len(chunks)

	// One capture time per run keeps every record of the run on the same timestamp.
	runAt := p.now()

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		summary, err := p.summarizer.Summarize(ctx, chunk.Content)
		if err != nil {
			slog.WarnContext(ctx, "chunk summarization failed, skipping", "chunk", chunk.Index, "error", err)
			report.Skipped++
			continue
		}

		candidate := Candidate{Summary: summary, Chunk: chunk, Document: doc, Baseline: baseline}
		if !p.filter.IsCurrent(ctx, candidate) {
			report.Rejected++
			continue
		}

		rec := Record{
			Summary:    summary,
			RunID:      report.RunID,
			ChunkIndex: chunk.Index,
			SourceRef:  doc.Source,
			SourceHash: doc.SHA,
			CreatedAt:  runAt,
		}
		if err := p.store.Insert(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "summary insert failed, chunk lost", "chunk", chunk.Index, "error", err)
			report.Skipped++
			continue
		}
		report.Committed++
		p.publish(ctx, rec)
	}

	return nil
}

// baseline loads the latest record before anything is produced. An
// unavailable store fails the run early so no summarization calls are wasted.
func (p *Pipeline) baseline(ctx context.Context) (*Record, error) {
	rec, err := p.store.FindLatest(ctx)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrNoRecord):
		return nil, nil
	case errors.Is(err, store.ErrUnavailable):
		return nil, err
	default:
		slog.WarnContext(ctx, "failed to load latest summary, continuing without baseline", "error", err)
		return nil, nil
	}
}

func (p *Pipeline) publish(ctx context.Context, rec Record) {
	if p.events == nil {
		return
	}
	body, err := json.Marshal(SummaryCommitted(rec))
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal summary event", "error", err)
		return
	}
	if err := p.events.Publish(p.topic, body); err != nil {
		slog.WarnContext(ctx, "failed to publish summary event", "topic", p.topic, "error", err)
	}
}

func (p *Pipeline) finish(ctx context.Context, report *Report, err error) {
	report.FinishedAt = p.now()
	report.Err = err
	switch {
	case err != nil:
		report.Status = StatusFailed
	case report.Skipped > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusSucceeded
	}

	attrs := []any{
		"status", report.Status,
		"chunks", report.Chunks,
		"committed", report.Committed,
		"skipped", report.Skipped,
		"rejected", report.Rejected,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	}
	if err != nil {
		slog.ErrorContext(ctx, "run failed", append(attrs, "error", err)...)
	} else {
		slog.InfoContext(ctx, "run finished", attrs...)
	}

	if p.recorder == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if rerr := p.recorder.Record(recCtx, *report); rerr != nil {
		slog.WarnContext(ctx, "failed to record run", "error", rerr)
	}
}
