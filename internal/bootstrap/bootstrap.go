// Package bootstrap builds the process-wide store handle and alert publisher
// shared by the ingest API and the daily aggregator.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-alert-service/internal/adapter/alertlog"
	kafkaadapter "github.com/couchcryptid/rainfall-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-alert-service/internal/adapter/memory"
	"github.com/couchcryptid/rainfall-alert-service/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/rainfall-alert-service/internal/adapter/redis"
	"github.com/couchcryptid/rainfall-alert-service/internal/aggregate"
	"github.com/couchcryptid/rainfall-alert-service/internal/config"
	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
	"github.com/couchcryptid/rainfall-alert-service/internal/ingest"
)

// Store is everything the service needs from persistent storage.
type Store interface {
	ingest.Appender
	aggregate.Store
	DailyTotal(ctx context.Context, dateKey string) (domain.DailyTotal, error)
	CheckReadiness(ctx context.Context) error
	Close() error
}

// Publisher sends alerts and releases its connection on Close.
type Publisher interface {
	aggregate.Publisher
	Close() error
}

// NewStore opens the backend selected by STORE_BACKEND. It is created once
// per process and closed at shutdown.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		s := redisadapter.New(redisadapter.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
		if err := s.CheckReadiness(ctx); err != nil {
			logger.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store; readings are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewPublisher builds the alert publisher selected by ALERT_PUBLISHER.
func NewPublisher(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (Publisher, error) {
	switch cfg.AlertPublisher {
	case config.PublisherKafka:
		return kafkaadapter.NewPublisher(cfg.KafkaBrokers, clock, logger), nil
	case config.PublisherLog:
		return alertlog.NewPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown alert publisher %q", cfg.AlertPublisher)
	}
}

// AggregatorOptions maps configuration onto aggregator options. The
// threshold is re-read from the environment on every run.
func AggregatorOptions(cfg *config.Config) aggregate.Options {
	return aggregate.Options{
		Target:     cfg.AggregateTarget,
		AlertTopic: cfg.AlertTopic,
		Threshold:  config.AlertThreshold,
	}
}
