package changelog

import (
	"context"

	"changelog-digest/internal/config"
)

// Refresher starts a background pipeline run without waiting for it.
type Refresher interface {
	Trigger(reason string)
}

type Service struct {
	repo          Repository
	refresher     Refresher
	refreshOnRead bool
}

func NewService(repo Repository, refresher Refresher, refreshOnRead bool) *Service {
	return &Service{repo: repo, refresher: refresher, refreshOnRead: refreshOnRead}
}

// Latest returns the most recent summary. When refresh-on-read is enabled a
// new run is requested first; the read never waits for it.
func (s *Service) Latest(ctx context.Context) (*Summary, error) {
	if s.refreshOnRead && s.refresher != nil {
		s.refresher.Trigger(config.TriggerRead)
	}
	return s.repo.FindLatest(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
