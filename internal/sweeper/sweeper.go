// Package sweeper resolves due aura proposals on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"aura-go/internal/services"
)

// Sweeper is the subset of ProposalService the scheduler drives.
type Sweeper interface {
	SweepPending(ctx context.Context, now time.Time) (services.SweepResult, error)
}

// Scheduler runs SweepPending on a cron schedule. Runs never overlap.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // held for the duration of one sweep
}

// New builds a Scheduler. An empty schedule disables it: Start and Stop become no-ops.
func New(sweeper Sweeper, schedule string, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  timeout,
		now:      time.Now,
	}
	if schedule == "" {
		return s, nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Enabled reports whether a schedule was configured.
func (s *Scheduler) Enabled() bool {
	return s.cron != nil
}

// Start begins running sweeps in the background until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cron == nil {
		logrus.Info("proposal sweeper disabled")
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	logrus.WithField("schedule", s.schedule).Info("proposal sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	<-done.Done()
	if s.cancel != nil {
		s.cancel()
	}
	logrus.Info("proposal sweeper stopped")
}

// RunOnce performs a single sweep. A tick that fires while the previous
// sweep is still running is skipped.
func (s *Scheduler) RunOnce() {
	if !s.mu.TryLock() {
		logrus.Warn("previous proposal sweep still running, skipping tick")
		return
	}
	defer s.mu.Unlock()

	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	result, err := s.sweeper.SweepPending(ctx, s.now())
	if err != nil {
		logrus.WithError(err).Error("proposal sweep failed")
		return
	}
	if result.Failed > 0 {
		logrus.WithField("failed", result.Failed).Warn("proposal sweep finished with failures")
	}
}
