package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	PolicyAlways      = "always"
	PolicyContentHash = "content-hash"
)

type Config struct {
	// Server
	Port int `envconfig:"PORT" default:"3000"`

	// Store
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Summarizer
	SummarizerProvider   string  `envconfig:"SUMMARIZER_PROVIDER" default:"openai"`
	SummarizerModel      string  `envconfig:"SUMMARIZER_MODEL"`
	SummarizerBaseURL    string  `envconfig:"SUMMARIZER_BASE_URL" default:"https://api.openai.com/v1"`
	SummarizerMaxTokens  int     `envconfig:"SUMMARIZER_MAX_TOKENS" default:"256"`
	SummarizerRatePerSec float64 `envconfig:"SUMMARIZER_RATE_PER_SECOND" default:"1"`
	OpenAIAPIKey         string  `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey         string  `envconfig:"GEMINI_API_KEY"`

	// Upstream document
	GitHubOwner   string `envconfig:"GITHUB_OWNER" default:"facebook"`
	GitHubRepo    string `envconfig:"GITHUB_REPO" default:"react"`
	ChangelogPath string `envconfig:"CHANGELOG_PATH" default:"CHANGELOG.md"`
	GitHubRef     string `envconfig:"GITHUB_REF"`
	GitHubToken   string `envconfig:"GITHUB_TOKEN"`
	GitHubAPIURL  string `envconfig:"GITHUB_API_URL"`

	// Pipeline
	ChunkSize      int    `envconfig:"CHUNK_SIZE" default:"1000"`
	Schedule       string `envconfig:"SCHEDULE" default:"*/20 * * * *"`
	RunOnStart     bool   `envconfig:"RUN_ON_START" default:"false"`
	RefreshOnRead  bool   `envconfig:"REFRESH_ON_READ" default:"true"`
	CurrencyPolicy string `envconfig:"CURRENCY_POLICY" default:"always"`

	// Events
	NSQDHost        string `envconfig:"NSQD_HOST"`
	NSQTopic        string `envconfig:"NSQ_TOPIC" default:"changelog.summary"`
	NSQRefreshTopic string `envconfig:"NSQ_REFRESH_TOPIC" default:"changelog.refresh"`
	NSQChannel      string `envconfig:"NSQ_CHANNEL" default:"digest"`
	NSQLookupd      string `envconfig:"NSQ_LOOKUPD_HTTP"`

	// Resilience
	HTTPTimeoutSeconds         int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingRequired)
	}

	switch c.SummarizerProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: unsupported SUMMARIZER_PROVIDER %q (supported: openai, gemini)", ErrInvalid, c.SummarizerProvider)
	}

	if c.GitHubOwner == "" || c.GitHubRepo == "" || c.ChangelogPath == "" {
		return fmt.Errorf("%w: GITHUB_OWNER, GITHUB_REPO and CHANGELOG_PATH", ErrMissingRequired)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", ErrInvalid, c.ChunkSize)
	}
	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: SUMMARIZER_MAX_TOKENS must be positive, got %d", ErrInvalid, c.SummarizerMaxTokens)
	}
	if c.SummarizerRatePerSec <= 0 {
		return fmt.Errorf("%w: SUMMARIZER_RATE_PER_SECOND must be positive", ErrInvalid)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w: SCHEDULE %q: %v", ErrInvalid, c.Schedule, err)
	}

	switch c.CurrencyPolicy {
	case PolicyAlways, PolicyContentHash:
	default:
		return fmt.Errorf("%w: unsupported CURRENCY_POLICY %q (supported: always, content-hash)", ErrInvalid, c.CurrencyPolicy)
	}

	return nil
}

// Model returns the configured model or the provider default.
func (c *Config) Model() string {
	if c.SummarizerModel != "" {
		return c.SummarizerModel
	}
	if c.SummarizerProvider == ProviderGemini {
		return "gemini-1.5-flash"
	}
	return "gpt-3.5-turbo-instruct"
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.BootstrapRetryDelaySeconds) * time.Second
}
