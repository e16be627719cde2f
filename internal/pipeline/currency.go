package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// AlwaysCurrent accepts every candidate.
type AlwaysCurrent struct{}

func (AlwaysCurrent) IsCurrent(context.Context, Candidate) bool { return true }

// ContentHashFilter accepts candidates only when the document differs from
// the one behind the latest stored summary.
type ContentHashFilter struct{}

func (ContentHashFilter) IsCurrent(ctx context.Context, c Candidate) bool {
	if c.Baseline == nil || c.Document == nil {
		return true
	}
	if c.Baseline.SourceHash == c.Document.SHA {
		slog.DebugContext(ctx, "document unchanged since last run", "source_hash", c.Document.SHA, "chunk", c.Chunk.Index)
		return false
	}
	return true
}

// NewCurrencyFilter maps a policy name to its filter.
func NewCurrencyFilter(policy string) (CurrencyFilter, error) {
	switch policy {
	case "", "always":
		return AlwaysCurrent{}, nil
	case "content-hash":
		return ContentHashFilter{}, nil
	default:
		return nil, fmt.Errorf("unsupported currency policy %q", policy)
	}
}
