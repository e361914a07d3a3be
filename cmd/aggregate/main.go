// Command aggregate runs the daily rainfall aggregation once and exits.
//
// It is meant to be triggered by an external scheduler, e.g. cron at
// 00:00 UTC:
//
//	0 0 * * * /usr/local/bin/aggregate
//
// The exit status reports the outcome to the host: 0 on success, 1 when any
// step failed. A failed run is not retried here.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-alert-service/internal/aggregate"
	"github.com/couchcryptid/rainfall-alert-service/internal/bootstrap"
	"github.com/couchcryptid/rainfall-alert-service/internal/config"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		return 1
	}
	defer store.Close() //nolint:errcheck // process is exiting

	publisher, err := bootstrap.NewPublisher(cfg, clock, logger)
	if err != nil {
		logger.Error("failed to create alert publisher", "error", err)
		return 1
	}
	defer publisher.Close() //nolint:errcheck // process is exiting

	opts := bootstrap.AggregatorOptions(cfg)
	opts.Clock = clock
	aggregator := aggregate.New(store, publisher, logger, metrics, opts)
	if _, err := aggregator.Run(ctx); err != nil {
		return 1
	}
	return 0
}
