package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"changelog-digest/internal/pipeline"
)

const (
	Provider     = "gemini"
	DefaultModel = "gemini-1.5-flash"

	PromptPrefix = "Summarize the following changelog excerpt:\n\n"
)

type Config struct {
	APIKey     string
	Model      string
	MaxTokens  int
	RatePerSec float64
	Timeout    time.Duration
}

// Summarizer generates chunk summaries with a Gemini model. The underlying
// client is created on first use.
type Summarizer struct {
	apiKey     string
	model      string
	maxTokens  int32
	timeout    time.Duration
	limiter    *rate.Limiter
	clientOpts []option.ClientOption

	mu     sync.Mutex
	client *genai.Client
}

func NewSummarizer(cfg Config, opts ...option.ClientOption) *Summarizer {
	s := &Summarizer{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  int32(cfg.MaxTokens),
		timeout:    cfg.Timeout,
		clientOpts: opts,
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if cfg.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return s
}

func (s *Summarizer) Summarize(ctx context.Context, chunk string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fail(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", fail(fmt.Errorf("%w: %w", pipeline.ErrRemoteFailure, err))
	}

	model := client.GenerativeModel(s.model)
	if s.maxTokens > 0 {
		model.SetMaxOutputTokens(s.maxTokens)
	}

	slog.DebugContext(ctx, "requesting summary", "model", s.model, "length", len(chunk))

	resp, err := model.GenerateContent(ctx, genai.Text(PromptPrefix+chunk))
	if err != nil {
		return "", classify(err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fail(pipeline.ErrEmptyResult)
	}
	return text, nil
}

func (s *Summarizer) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	opts := append(s.clientOpts, option.WithAPIKey(s.apiKey))
	client, err := genai.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

func (s *Summarizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fail(fmt.Errorf("%w: %w", pipeline.ErrEmptyResult, err))
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		se := &pipeline.SummarizeError{Provider: Provider, StatusCode: gerr.Code, Err: fmt.Errorf("%w: %w", pipeline.ErrRemoteFailure, err)}
		if gerr.Code == 429 {
			se.Err = fmt.Errorf("%w: %w", pipeline.ErrRateLimited, err)
		}
		return se
	}
	return fail(fmt.Errorf("%w: %w", pipeline.ErrRemoteFailure, err))
}

func fail(err error) error {
	return &pipeline.SummarizeError{Provider: Provider, Err: err}
}
