package aggregate

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

// Runner executes one aggregation run.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler fires a Runner once per day at a fixed UTC time of day.
type Scheduler struct {
	runner  Runner
	at      time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewScheduler creates a Scheduler firing at the given offset from UTC
// midnight. A nil clock uses real time.
func NewScheduler(runner Runner, at time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		runner:  runner,
		at:      at,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// NextRun returns the first scheduled time strictly after now.
func NextRun(now time.Time, at time.Duration) time.Time {
	midnight := domain.WindowForDate(now).Start
	next := midnight.Add(at)
	if !next.After(now.UTC()) {
		next = midnight.AddDate(0, 0, 1).Add(at)
	}
	return next
}

// Run blocks until ctx is cancelled, running the aggregation at each
// scheduled time. A failed run is not retried; the next attempt is the
// following day's.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	for {
		now := s.clock.Now()
		next := NextRun(now, s.at)
		s.logger.Info("next daily aggregation scheduled", "at", next.Format(time.RFC3339))

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-timer.Chan():
		}

		if _, err := s.runner.Run(ctx); err != nil {
			s.logger.Warn("scheduled aggregation failed, waiting for next run", "error", err)
		}
	}
}
