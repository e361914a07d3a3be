package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/rainfall-alert-service/internal/adapter/http"
	"github.com/couchcryptid/rainfall-alert-service/internal/aggregate"
	"github.com/couchcryptid/rainfall-alert-service/internal/bootstrap"
	"github.com/couchcryptid/rainfall-alert-service/internal/config"
	"github.com/couchcryptid/rainfall-alert-service/internal/ingest"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One store handle shared by ingestion and aggregation.
	store, err := bootstrap.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	publisher, err := bootstrap.NewPublisher(cfg, clock, logger)
	if err != nil {
		logger.Error("failed to create alert publisher", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewService(store, clock, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ingestor, store, store, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start daily scheduler.
	if cfg.SchedulerEnabled {
		opts := bootstrap.AggregatorOptions(cfg)
		opts.Clock = clock
		aggregator := aggregate.New(store, publisher, logger, metrics, opts)
		scheduler := aggregate.NewScheduler(aggregator, cfg.AggregateAt, clock, logger, metrics)

		go func() {
			if err := scheduler.Run(ctx); err != nil {
				logger.Error("scheduler error", "error", err)
			}
		}()
		logger.Info("daily aggregation scheduled", "at_utc", time.Time{}.Add(cfg.AggregateAt).Format("15:04"), "target_day", cfg.AggregateTarget)
	} else {
		logger.Info("in-process scheduler disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("alert publisher close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
