package run

import (
	"context"

	"changelog-digest/internal/config"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Trigger requests a pipeline run without waiting for it.
type Trigger interface {
	Trigger(reason string)
}

type Service struct {
	repo    Repository
	trigger Trigger
}

func NewService(repo Repository, trigger Trigger) *Service {
	return &Service{repo: repo, trigger: trigger}
}

// List returns the most recent runs, newest first. The limit is clamped to
// [1, MaxListLimit]; zero or negative selects DefaultListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) Start() {
	s.trigger.Trigger(config.TriggerAPI)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
