package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"changelog-digest/features/changelog"
	"changelog-digest/features/run"
	"changelog-digest/features/stats"
	"changelog-digest/internal/config"
	"changelog-digest/internal/middleware"
	"changelog-digest/internal/pipeline"
	"changelog-digest/internal/store"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Handler   http.Handler
	Scheduler *pipeline.Scheduler
	Pipeline  *pipeline.Pipeline
	port      int
}

// New wires repositories, the pipeline, its scheduler and the HTTP routes.
// events may be nil.
func New(
	cfg *config.Config,
	conn *store.Conn,
	fetcher pipeline.Fetcher,
	summarizer pipeline.Summarizer,
	events pipeline.EventPublisher,
) (*App, error) {
	// Feature: Changelog
	summaryRepo := changelog.NewPostgresRepo(conn)

	// Feature: Run history
	runRepo := run.NewPostgresRepo(conn)

	// Pipeline
	filter, err := pipeline.NewCurrencyFilter(cfg.CurrencyPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	opts := []pipeline.Option{pipeline.WithRunRecorder(&runRecorderAdapter{repo: runRepo})}
	if events != nil {
		opts = append(opts, pipeline.WithEvents(events, cfg.NSQTopic))
	}
	p, err := pipeline.New(fetcher, summarizer, &summaryStoreAdapter{repo: summaryRepo}, filter, cfg.ChunkSize, opts...)
	if err != nil {
		return nil, err
	}

	scheduler, err := pipeline.NewScheduler(p, cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	changelogService := changelog.NewService(summaryRepo, scheduler, cfg.RefreshOnRead)
	changelogHandler := changelog.NewHandler(changelogService)

	runService := run.NewService(runRepo, scheduler)
	runHandler := run.NewHandler(runService)

	// Feature: Stats
	statsHandler := stats.NewHandler(summaryRepo, runRepo)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /api/retrieve-changelog", middleware.CorrelationID(middleware.CORS(changelogHandler.Retrieve)))

	mux.Handle("GET /api/runs", middleware.CorrelationID(middleware.CORS(runHandler.List)))
	mux.Handle("POST /api/runs", middleware.CorrelationID(middleware.CORS(runHandler.Trigger)))

	mux.Handle("GET /api/stats", middleware.CorrelationID(middleware.CORS(statsHandler.GetStats)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		state := "connecting"
		if conn.Ready() {
			state = "connected"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "store": state})
	})

	return &App{
		Handler:   middleware.Recover(mux),
		Scheduler: scheduler,
		Pipeline:  p,
		port:      cfg.Port,
	}, nil
}

// Run serves HTTP and drives the schedule until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	err := srv.ListenAndServe()
	a.Scheduler.Stop()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// summaryStoreAdapter exposes the changelog repository to the pipeline.
type summaryStoreAdapter struct {
	repo changelog.Repository
}

func (a *summaryStoreAdapter) Insert(ctx context.Context, rec pipeline.Record) error {
	return a.repo.Insert(ctx, &changelog.Summary{
		Summary:    rec.Summary,
		RunID:      rec.RunID,
		ChunkIndex: rec.ChunkIndex,
		SourceRef:  rec.SourceRef,
		SourceHash: rec.SourceHash,
		CreatedAt:  rec.CreatedAt,
	})
}

func (a *summaryStoreAdapter) FindLatest(ctx context.Context) (*pipeline.Record, error) {
	s, err := a.repo.FindLatest(ctx)
	if errors.Is(err, changelog.ErrNotFound) {
		return nil, pipeline.ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &pipeline.Record{
		Summary:    s.Summary,
		RunID:      s.RunID,
		ChunkIndex: s.ChunkIndex,
		SourceRef:  s.SourceRef,
		SourceHash: s.SourceHash,
		CreatedAt:  s.CreatedAt,
	}, nil
}

// runRecorderAdapter stores pipeline reports in run history.
type runRecorderAdapter struct {
	repo run.Repository
}

func (a *runRecorderAdapter) Record(ctx context.Context, report pipeline.Report) error {
	r := &run.Run{
		ID:         report.RunID,
		Trigger:    report.Trigger,
		Status:     string(report.Status),
		Chunks:     report.Chunks,
		Committed:  report.Committed,
		Skipped:    report.Skipped,
		Rejected:   report.Rejected,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	if report.Err != nil {
		r.Error = report.Err.Error()
	}
	return a.repo.Save(ctx, r)
}
