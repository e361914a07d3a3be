package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

// Publisher sends alerts to Kafka, one message per alert on the alert's topic.
// It implements aggregate.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the given brokers. The topic is
// taken from each alert; clock stamps the published_at header.
func NewPublisher(brokers []string, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		// One best-effort send per alert.
		MaxAttempts: 1,
	}
	return &Publisher{writer: w, clock: clock, logger: logger}
}

// Publish writes a single alert message. It is not retried.
func (p *Publisher) Publish(ctx context.Context, alert domain.Alert) error {
	msg, err := serializeAlert(alert, p.clock.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert to %s: %w", alert.Topic, err)
	}
	p.logger.Info("alert published", "topic", alert.Topic, "date", alert.DateKey, "total", alert.Total)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals an Alert into a Kafka message keyed by date.
func serializeAlert(alert domain.Alert, publishedAt time.Time) (kafkago.Message, error) {
	if alert.Topic == "" {
		return kafkago.Message{}, fmt.Errorf("serialize alert: topic is required")
	}
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Topic: alert.Topic,
		Key:   []byte(alert.DateKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "title", Value: []byte(alert.Title)},
			{Key: "published_at", Value: []byte(publishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
