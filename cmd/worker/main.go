// Package main provides the entrypoint for the LevelUp background worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/classifier/providers"
	"github.com/levelup/levelup/internal/config"
	"github.com/levelup/levelup/internal/database"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/profile"
	"github.com/levelup/levelup/internal/provider/resilience"
	"github.com/levelup/levelup/internal/store"
	"github.com/levelup/levelup/internal/telemetry"
	"github.com/levelup/levelup/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "levelup-worker"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("worker exited")
	}
}

func run(log zerolog.Logger) error {
	log.Info().Str("build_time", BuildTime).Msg("starting LevelUp worker")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush telemetry")
		}
	}()

	dbConfig, err := database.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	kv, closeStore, err := store.Open(ctx, store.OpenConfig{
		Postgres: cfg.StorageBackend == config.StoragePostgres,
		Database: dbConfig,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeStore()

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewKVRepository(kv),
		Logger:     log,
		CacheTTL:   cfg.FlagCacheTTL,
	})

	runner := worker.NewRunner(worker.RunnerConfig{
		Config:   worker.DefaultConfig(),
		Logger:   log,
		Profiles: profile.NewService(profile.NewKVRepository(kv), log),
		Classifier: classifier.NewService(classifier.ServiceConfig{
			Providers:    providers.FromConfig(ctx, cfg, log),
			FeatureFlags: flags,
			Registry:     resilience.NewRegistry(),
			Logger:       log,
		}),
	})

	health := &http.Server{
		Addr:         ":" + cfg.WorkerHealthPort,
		Handler:      healthHandler(runner),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", health.Addr).Msg("health check server listening")
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	receiveErr := make(chan error, 1)
	switch {
	case cfg.PubSubProjectID != "":
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscriptionID,
			Runner:           runner,
			Logger:           log,
		})
		if err != nil {
			return fmt.Errorf("creating pubsub handler: %w", err)
		}
		defer func() { _ = handler.Close() }()

		go func() { receiveErr <- handler.Start(ctx) }()
	case cfg.WorkerTickInterval > 0:
		log.Info().Dur("interval", cfg.WorkerTickInterval).Msg("running jobs on a ticker")
		go runner.RunTicker(ctx, cfg.WorkerTickInterval)
	default:
		log.Warn().Msg("neither PUBSUB_PROJECT_ID nor WORKER_TICK_INTERVAL set, worker is idle")
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-receiveErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("receiving job messages: %w", err)
		}
	}
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
	return runErr
}

// healthHandler reports liveness and the job counters for Cloud Run.
func healthHandler(runner *worker.Runner) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"jobs":    runner.MetricsSnapshot(),
		})
	})
	return mux
}
