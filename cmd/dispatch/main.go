package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/cap-alert-dispatch/internal/adapter/http"
	natsadapter "github.com/couchcryptid/cap-alert-dispatch/internal/adapter/nats"
	"github.com/couchcryptid/cap-alert-dispatch/internal/adapter/postgres"
	"github.com/couchcryptid/cap-alert-dispatch/internal/adapter/sachet"
	"github.com/couchcryptid/cap-alert-dispatch/internal/config"
	"github.com/couchcryptid/cap-alert-dispatch/internal/dispatch"
	"github.com/couchcryptid/cap-alert-dispatch/internal/ingest"
	"github.com/couchcryptid/cap-alert-dispatch/internal/observability"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, cfg.QueryTimeout, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	publisher, err := natsadapter.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	listener, err := natsadapter.NewTelemetryListener(cfg.NATSURL, cfg.TelemetrySubjects, cfg.QueryTimeout, store, metrics, logger)
	if err != nil {
		logger.Error("failed to connect to nats for telemetry", "error", err)
		os.Exit(1)
	}
	defer listener.Close()

	if err := listener.Start(); err != nil {
		logger.Error("failed to subscribe to telemetry", "error", err)
		os.Exit(1)
	}

	feed := sachet.NewClient(cfg.AlertFeedURL, cfg.QuakeFeedURL, cfg.AreaLookupURL, cfg.FeedTimeout, logger)
	areas := sachet.NewCachedAreaLookup(feed, cfg.AreaCacheSize, metrics)

	ingestor := ingest.New(feed, areas, store, publisher,
		cfg.FetchInterval, cfg.PublishTimeout, metrics, logger)
	dispatcher := dispatch.New(store, store, publisher,
		cfg.DispatchInterval, cfg.PublishTimeout, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, dispatcher, dispatcher, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ingestor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Loops finish their in-flight pass before exiting.
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
