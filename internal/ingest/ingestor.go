package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

// Appender appends a reading to the time-ordered log and returns it with its
// generated ID.
type Appender interface {
	AppendReading(ctx context.Context, r domain.Reading) (domain.Reading, error)
}

// Service validates and stores individual rainfall readings.
type Service struct {
	store   Appender
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates an ingest Service. A nil clock uses real time.
func NewService(store Appender, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:   store,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Ingest parses amount, stamps it with the current server time and appends
// it to the log. It fails with domain.ErrInvalidInput before any write when
// amount is not a number, and with domain.ErrStorageUnavailable when the
// append fails.
func (s *Service) Ingest(ctx context.Context, amount any) (domain.Reading, error) {
	v, err := domain.ParseAmount(amount)
	if err != nil {
		s.metrics.IngestErrors.WithLabelValues("invalid_input").Inc()
		s.logger.Debug("rejected reading", "error", err)
		return domain.Reading{}, err
	}

	stored, err := s.store.AppendReading(ctx, domain.NewReading(s.clock.Now(), v))
	if err != nil {
		s.metrics.IngestErrors.WithLabelValues("storage").Inc()
		s.logger.Error("append reading failed", "error", err, "amount", v)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return domain.Reading{}, err
		}
		return domain.Reading{}, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	s.metrics.ReadingsIngested.Inc()
	s.logger.Debug("reading logged", "id", stored.ID, "timestamp", stored.Timestamp, "amount", stored.Amount)
	return stored, nil
}
