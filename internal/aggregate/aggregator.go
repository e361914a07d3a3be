package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

// ReadingQuerier returns the readings with startMs <= timestamp < endMs.
type ReadingQuerier interface {
	QueryReadings(ctx context.Context, startMs, endMs int64) ([]domain.RawReading, error)
}

// TotalWriter stores a daily total, replacing any previous value for its date.
type TotalWriter interface {
	SaveDailyTotal(ctx context.Context, dt domain.DailyTotal) error
}

// Store is the storage needed by the aggregator.
type Store interface {
	ReadingQuerier
	TotalWriter
}

// Publisher sends an alert to its topic.
type Publisher interface {
	Publish(ctx context.Context, alert domain.Alert) error
}

// ThresholdFunc returns the alert threshold in effect for a run.
type ThresholdFunc func() float64

// Options configures an Aggregator.
type Options struct {
	Target     domain.TargetDay
	AlertTopic string
	Threshold  ThresholdFunc
	Clock      clockwork.Clock
}

// Result summarises one aggregation run.
type Result struct {
	DailyTotal domain.DailyTotal
	Readings   int
	Threshold  float64
	Alerted    bool
}

// Aggregator computes and stores the daily rainfall total and publishes an
// alert when it exceeds the threshold.
type Aggregator struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	target    domain.TargetDay
	topic     string
	threshold ThresholdFunc
	clock     clockwork.Clock
}

// New creates an Aggregator. Zero options default to the current UTC day,
// the default alert topic, a constant threshold of 100 and the real clock.
func New(store Store, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Aggregator {
	a := &Aggregator{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		target:    opts.Target,
		topic:     opts.AlertTopic,
		threshold: opts.Threshold,
		clock:     opts.Clock,
	}
	if a.target == "" {
		a.target = domain.TargetToday
	}
	if a.topic == "" {
		a.topic = domain.DefaultAlertTopic
	}
	if a.threshold == nil {
		a.threshold = func() float64 { return 100 }
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	return a
}

// Run performs one aggregation for the target day of the current time.
// Errors wrap domain.ErrAggregationFailed. A daily total that was already
// written is kept when the alert publish fails.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	start := a.clock.Now()
	res, err := a.run(ctx, start)

	a.metrics.AggregationDuration.Observe(a.clock.Since(start).Seconds())
	if err != nil {
		a.metrics.AggregationRuns.WithLabelValues("error").Inc()
		a.logger.Error("daily aggregation failed", "error", err, "date", res.DailyTotal.DateKey)
		return res, err
	}

	a.metrics.AggregationRuns.WithLabelValues("success").Inc()
	a.logger.Info("daily aggregation complete",
		"date", res.DailyTotal.DateKey,
		"total", res.DailyTotal.Total,
		"readings", res.Readings,
		"threshold", res.Threshold,
		"alerted", res.Alerted,
	)
	return res, nil
}

func (a *Aggregator) run(ctx context.Context, now time.Time) (Result, error) {
	window := domain.DayWindowFor(now, a.target)
	res := Result{DailyTotal: domain.DailyTotal{DateKey: window.DateKey()}}

	readings, err := a.store.QueryReadings(ctx, window.StartMillis(), window.EndMillis())
	if err != nil {
		return res, fmt.Errorf("%w: query readings for %s: %w", domain.ErrAggregationFailed, res.DailyTotal.DateKey, err)
	}
	a.warnMalformed(readings)

	res.Readings = len(readings)
	res.DailyTotal.Total = domain.SumAmounts(readings)
	a.metrics.ReadingsAggregated.Observe(float64(res.Readings))

	if err := a.store.SaveDailyTotal(ctx, res.DailyTotal); err != nil {
		return res, fmt.Errorf("%w: save daily total %s: %w", domain.ErrAggregationFailed, res.DailyTotal.DateKey, err)
	}
	a.metrics.DailyTotal.Set(res.DailyTotal.Total)

	res.Threshold = a.threshold()
	if !domain.ExceedsThreshold(res.DailyTotal.Total, res.Threshold) {
		return res, nil
	}

	if err := a.publisher.Publish(ctx, domain.NewAlert(a.topic, res.DailyTotal)); err != nil {
		a.metrics.AlertsPublished.WithLabelValues("error").Inc()
		return res, fmt.Errorf("%w: publish alert for %s: %w", domain.ErrAggregationFailed, res.DailyTotal.DateKey, err)
	}
	a.metrics.AlertsPublished.WithLabelValues("success").Inc()
	res.Alerted = true
	return res, nil
}

func (a *Aggregator) warnMalformed(readings []domain.RawReading) {
	for _, r := range readings {
		if _, err := domain.ParseAmount(r.Amount); err != nil {
			a.logger.Warn("malformed reading counted as zero", "id", r.ID, "timestamp", r.Timestamp, "error", err)
		}
	}
}
