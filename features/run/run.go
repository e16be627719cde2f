package run

import (
	"time"
)

// Run is the persisted outcome of one pipeline run.
type Run struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	Chunks     int       `json:"chunks"`
	Committed  int       `json:"committed"`
	Skipped    int       `json:"skipped"`
	Rejected   int       `json:"rejected"`
	Error      string    `json:"error"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
