package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"changelog-digest/internal/pipeline"
)

const (
	Provider       = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo-instruct"

	// PromptPrefix is prepended to every chunk sent for summarization.
	PromptPrefix = "Summarize the following changelog excerpt:\n\n"
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	RatePerSec float64
	Timeout    time.Duration
}

// Client calls an OpenAI-compatible completions endpoint.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
	limiter   *rate.Limiter
}

func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.client.Timeout <= 0 {
		c.client.Timeout = 30 * time.Second
	}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return c
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (c *Client) Summarize(ctx context.Context, chunk string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.fail(0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	jsonBody, err := json.Marshal(completionRequest{
		Model:     c.model,
		Prompt:    PromptPrefix + chunk,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", c.fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", c.fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	slog.DebugContext(ctx, "requesting summary", "model", c.model, "length", len(chunk))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.fail(0, fmt.Errorf("%w: %w", pipeline.ErrRemoteFailure, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", c.fail(resp.StatusCode, pipeline.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", c.fail(resp.StatusCode, fmt.Errorf("%w: %s", pipeline.ErrRemoteFailure, strings.TrimSpace(string(body))))
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", c.fail(resp.StatusCode, fmt.Errorf("%w: decode response: %w", pipeline.ErrRemoteFailure, err))
	}

	if len(result.Choices) == 0 {
		return "", c.fail(resp.StatusCode, pipeline.ErrEmptyResult)
	}
	text := strings.TrimSpace(result.Choices[0].Text)
	if text == "" {
		return "", c.fail(resp.StatusCode, pipeline.ErrEmptyResult)
	}
	return text, nil
}

func (c *Client) fail(status int, err error) error {
	return &pipeline.SummarizeError{Provider: Provider, StatusCode: status, Err: err}
}
