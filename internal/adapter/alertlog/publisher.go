// Package alertlog publishes alerts to the service log. It stands in for a
// broker in deployments that only need the alert recorded.
package alertlog

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

// Publisher writes each alert as a WARN log record.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher returns a Publisher that logs through logger.
func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish logs alert at WARN with its title as the message. It never fails.
func (p *Publisher) Publish(ctx context.Context, alert domain.Alert) error {
	p.logger.WarnContext(ctx, alert.Title,
		"topic", alert.Topic,
		"body", alert.Body,
		"date", alert.DateKey,
		"total", alert.Total,
	)
	return nil
}

func (p *Publisher) Close() error { return nil }
