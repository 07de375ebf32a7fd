// Package scheduler runs the periodic sweep: refresh the project cache,
// evaluate overdue and at-risk milestones, and run the date-tracking
// state machine for every project.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"projectpulse/contracts/mq"
	"projectpulse/internal/model"
	"projectpulse/internal/notify"
	"projectpulse/internal/progress"
	"projectpulse/internal/tracking"
	"projectpulse/pkg/clock"
)

// Dispatcher is the slice of the notification dispatcher the scheduler
// needs.
type Dispatcher interface {
	Dispatch(payload mq.NotificationCreatedPayload) error
}

// Refresher is the project cache seen from the scheduler.
type Refresher interface {
	Refresh(ctx context.Context) ([]model.Project, error)
}

type Scheduler struct {
	cache      Refresher
	monitor    *tracking.Monitor
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *zap.Logger

	interval   time.Duration
	summaryGap time.Duration
	dwell      time.Duration

	mu           sync.Mutex
	lastNotified time.Time
}

func New(cache Refresher, monitor *tracking.Monitor, dispatcher Dispatcher, clk clock.Clock, interval, summaryGap, dwell time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cache:      cache,
		monitor:    monitor,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
		interval:   interval,
		summaryGap: summaryGap,
		dwell:      dwell,
	}
}

// Run sweeps immediately, then on every interval tick until the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("summary_gap", s.summaryGap))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs one full pass. Exposed so a manual refresh can trigger the
// same evaluation the timer does.
func (s *Scheduler) Sweep(ctx context.Context) error {
	return s.sweep(ctx)
}

func (s *Scheduler) sweep(ctx context.Context) error {
	projects, err := s.cache.Refresh(ctx)
	if err != nil {
		s.logger.Error("Sweep refresh failed", zap.Error(err))
		return err
	}

	s.evaluateTracking(ctx, projects)
	s.notifyOverdueAndAtRisk(projects)
	return nil
}

func (s *Scheduler) evaluateTracking(ctx context.Context, projects []model.Project) {
	for _, p := range projects {
		action, err := s.monitor.Evaluate(ctx, p)
		if err != nil {
			s.logger.Error("Tracking evaluation failed",
				zap.String("project_id", p.ID), zap.Error(err))
			continue
		}

		switch action.Type {
		case tracking.ActionDatesChanged:
			if err := s.dispatcher.Dispatch(notify.ComposeDateDrift(action)); err != nil {
				s.logger.Error("Failed to dispatch drift notification",
					zap.String("project_id", p.ID), zap.Error(err))
			}
		case tracking.ActionReminder:
			if err := s.dispatcher.Dispatch(notify.ComposeDateReminder(action, s.dwell)); err != nil {
				s.logger.Error("Failed to dispatch reminder notification",
					zap.String("project_id", p.ID), zap.Error(err))
			}
		}
	}
}

// notifyOverdueAndAtRisk sends per-milestone alerts plus the summary, at
// most once per summary gap. Tracking notifications are not gated here
// because the state machine already fires each of them at most once.
func (s *Scheduler) notifyOverdueAndAtRisk(projects []model.Project) {
	now := s.clock.Now()

	s.mu.Lock()
	if now.Sub(s.lastNotified) < s.summaryGap {
		s.mu.Unlock()
		return
	}
	s.lastNotified = now
	s.mu.Unlock()

	var sent int
	for _, p := range projects {
		for _, m := range p.Milestones {
			if m.IsOverdue {
				if err := s.dispatcher.Dispatch(notify.ComposeMilestoneOverdue(p, m)); err == nil {
					sent++
				}
			} else if progress.IsAtRisk(m, now) {
				if err := s.dispatcher.Dispatch(notify.ComposeProgressAtRisk(p, m, progress.Ratio(m))); err == nil {
					sent++
				}
			}
		}
	}

	if payload, ok := notify.ComposeOverdueSummary(projects); ok {
		if err := s.dispatcher.Dispatch(payload); err == nil {
			sent++
		}
	}

	if sent > 0 {
		s.logger.Info("Overdue sweep notifications sent", zap.Int("count", sent))
	}
}
