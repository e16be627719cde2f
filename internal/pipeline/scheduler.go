package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"changelog-digest/internal/config"
)

const runKey = "run"

var ErrSchedulerStopped = errors.New("scheduler stopped")

// Runner executes a single pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger string) (*Report, error)
}

// Scheduler starts runs on a cron schedule and on demand. At most one run is
// in flight; triggers that arrive while a run is active join it.
type Scheduler struct {
	runner   Runner
	cron     *cron.Cron
	schedule string
	group    singleflight.Group

	mu      sync.Mutex
	base    context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

func NewScheduler(runner Runner, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		cron:     cron.New(),
		schedule: schedule,
		base:     base,
		cancel:   cancel,
	}, nil
}

// Start registers the schedule and begins ticking. Runs started afterwards
// inherit ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.base, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.schedule, func() { s.Trigger(config.TriggerSchedule) }); err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "schedule", s.schedule)
	return nil
}

// Trigger requests a run without waiting for it.
func (s *Scheduler) Trigger(reason string) {
	if s.stopped.Load() {
		slog.Warn("trigger ignored, scheduler stopped", "trigger", reason)
		return
	}
	s.do(reason)
}

// RunNow requests a run and waits for its report. If a run is already in
// flight the caller receives that run's report.
func (s *Scheduler) RunNow(ctx context.Context, reason string) (*Report, error) {
	if s.stopped.Load() {
		return nil, ErrSchedulerStopped
	}
	select {
	case res := <-s.do(reason):
		report, _ := res.Val.(*Report)
		return report, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Scheduler) do(reason string) <-chan singleflight.Result {
	return s.group.DoChan(runKey, func() (interface{}, error) {
		return s.runner.Run(s.context(), reason)
	})
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Stop halts the schedule, cancels any in-flight run and waits for it to
// return.
func (s *Scheduler) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	// Joins the in-flight run if there is one, otherwise returns at once.
	<-s.group.DoChan(runKey, func() (interface{}, error) { return nil, nil })
	slog.Info("scheduler stopped")
}
