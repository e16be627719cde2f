package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"changelog-digest/internal/adapter/gemini"
	"changelog-digest/internal/adapter/github"
	"changelog-digest/internal/adapter/openai"
	"changelog-digest/internal/app"
	"changelog-digest/internal/config"
	"changelog-digest/internal/logger"
	"changelog-digest/internal/pipeline"
)

func main() {
	// Initialize structured logger
	log := logger.New(os.Stdout)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	slog.SetDefault(log)

	fetcher, err := github.NewFetcher(ctx, github.Config{
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Path:    cfg.ChangelogPath,
		Ref:     cfg.GitHubRef,
		Token:   cfg.GitHubToken,
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.HTTPTimeout(),
	})
	if err != nil {
		return err
	}

	summarizer, closeSummarizer, err := newSummarizer(cfg)
	if err != nil {
		return err
	}
	defer closeSummarizer()

	ready := make(chan struct{})
	deps, err := app.Bootstrap(ctx, cfg, func() { close(ready) })
	if err != nil {
		return err
	}
	defer deps.Conn.Close()

	var events pipeline.EventPublisher
	if deps.NSQProducer != nil {
		events = deps.NSQProducer
		defer deps.NSQProducer.Stop()
	}

	a, err := app.New(cfg, deps.Conn, fetcher, summarizer, events)
	if err != nil {
		return err
	}

	consumer, err := app.StartRefreshConsumer(cfg, a.Scheduler)
	if err != nil {
		slog.Warn("refresh consumer disabled", "error", err)
	} else if consumer != nil {
		defer consumer.Stop()
	}

	if cfg.RunOnStart {
		go func() {
			select {
			case <-ready:
				a.Scheduler.Trigger(config.TriggerStartup)
			case <-ctx.Done():
			}
		}()
	}

	return a.Run(ctx)
}

func newSummarizer(cfg *config.Config) (pipeline.Summarizer, func(), error) {
	switch cfg.SummarizerProvider {
	case config.ProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.SummarizerBaseURL,
			Model:      cfg.Model(),
			MaxTokens:  cfg.SummarizerMaxTokens,
			RatePerSec: cfg.SummarizerRatePerSec,
			Timeout:    cfg.HTTPTimeout(),
		})
		return c, func() {}, nil
	case config.ProviderGemini:
		s := gemini.NewSummarizer(gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.Model(),
			MaxTokens:  cfg.SummarizerMaxTokens,
			RatePerSec: cfg.SummarizerRatePerSec,
			Timeout:    cfg.HTTPTimeout(),
		})
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("failed to close gemini client", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported summarizer provider %q", config.ErrInvalid, cfg.SummarizerProvider)
	}
}
