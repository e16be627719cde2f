package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"changelog-digest/internal/pipeline"
)

const (
	DefaultTimeout = 30 * time.Second

	// ProactiveRate keeps unauthenticated callers well inside GitHub's hourly quota.
	ProactiveRate = 1.2
)

type Config struct {
	Owner   string
	Repo    string
	Path    string
	Ref     string
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Fetcher retrieves one file from a GitHub repository through the contents API.
type Fetcher struct {
	gh      *gh.Client
	owner   string
	repo    string
	path    string
	ref     string
	limiter *rate.Limiter
}

func NewFetcher(ctx context.Context, cfg Config) (*Fetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = timeout

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	return &Fetcher{
		gh:      client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		path:    cfg.Path,
		ref:     cfg.Ref,
		limiter: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}, nil
}

// Source identifies the fetched file as owner/repo/path[@ref].
func (f *Fetcher) Source() string {
	s := f.owner + "/" + f.repo + "/" + f.path
	if f.ref != "" {
		s += "@" + f.ref
	}
	return s
}

func (f *Fetcher) Fetch(ctx context.Context) (*pipeline.RawDocument, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &pipeline.FetchError{Source: f.Source(), Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	slog.DebugContext(ctx, "fetching document", "source", f.Source())

	opts := &gh.RepositoryContentGetOptions{Ref: f.ref}
	file, dir, resp, err := f.gh.Repositories.GetContents(ctx, f.owner, f.repo, f.path, opts)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &pipeline.FetchError{Source: f.Source(), StatusCode: status, Err: fmt.Errorf("%w: %w", pipeline.ErrRemoteFailure, err)}
	}

	if file == nil {
		return nil, &pipeline.FetchError{
			Source: f.Source(),
			Err:    fmt.Errorf("%w: path is a directory with %d entries", pipeline.ErrRemoteFailure, len(dir)),
		}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &pipeline.FetchError{Source: f.Source(), Err: fmt.Errorf("%w: decode content: %w", pipeline.ErrRemoteFailure, err)}
	}

	return pipeline.NewRawDocument(f.Source(), content), nil
}
