package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteFailure marks an upstream call that failed or returned a non-success status.
	ErrRemoteFailure = errors.New("remote failure")

	// ErrEmptyResult marks a summarization response without usable text.
	ErrEmptyResult = errors.New("empty result")

	// ErrRateLimited marks a summarization call rejected with 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoRecord is returned by SummaryStore.FindLatest on an empty store.
	ErrNoRecord = errors.New("no summary record")
)

// FetchError is a run-level failure to retrieve the upstream document.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SummarizeError is a per-chunk failure of the summarization service.
type SummarizeError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *SummarizeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: summarize: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: summarize: %v", e.Provider, e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }
