// Package main provides the entrypoint for the LevelUp API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api"
	"github.com/levelup/levelup/internal/api/middleware"
	"github.com/levelup/levelup/internal/auth"
	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/classifier/providers"
	"github.com/levelup/levelup/internal/config"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/database"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/profile"
	"github.com/levelup/levelup/internal/provider/resilience"
	"github.com/levelup/levelup/internal/store"
	"github.com/levelup/levelup/internal/telemetry"
	"github.com/levelup/levelup/internal/waitlist"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName   = "levelup-api"
	tokenIssuer   = "https://api.levelup.fit"
	tokenAudience = "levelup-admin"
)

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("api exited")
	}
}

// run wires the API and serves until SIGINT or SIGTERM. Deferred cleanup
// runs before main logs a fatal error.
func run(log zerolog.Logger) error {
	log.Info().Str("build_time", BuildTime).Msg("starting LevelUp API")

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
	defer flushTelemetry(log, tp)
	if cfg.OTELEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("exporting traces and metrics")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("creating request metrics: %w", err)
	}
	classifierMetrics, err := classifier.NewMetrics()
	if err != nil {
		return fmt.Errorf("creating classifier metrics: %w", err)
	}

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

	if cfg.JWTSigningKey == config.DefaultJWTSigningKey {
		log.Warn().Msg("using the development JWT signing key")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     tokenIssuer,
		Audience:   tokenAudience,
		Expiry:     cfg.AdminTokenTTL,
	})
	authService := auth.NewService(auth.ServiceConfig{
		Username:   cfg.AdminUsername,
		Password:   cfg.AdminPassword,
		JWTService: jwtService,
		Logger:     log,
	})
	if !cfg.AdminConfigured() {
		log.Warn().Msg("ADMIN_USERNAME or ADMIN_PASSWORD not set, admin endpoints are disabled")
	}

	registry := resilience.NewRegistry()
	classifierService := classifier.NewService(classifier.ServiceConfig{
		Providers:    providers.FromConfig(ctx, cfg, log),
		FeatureFlags: flags,
		Registry:     registry,
		Metrics:      classifierMetrics,
		Logger:       log,
	})
	if classifierService.Configured() {
		log.Info().Strs("providers", classifierService.ProviderNames()).Msg("image classifier ready")
	} else {
		log.Warn().Msg("no image classifier configured, photo analysis will fail")
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.RouterConfig{
			Version:            Version,
			BuildTime:          BuildTime,
			Logger:             log,
			ServiceName:        serviceName,
			Metrics:            httpMetrics,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RequireTLS:         cfg.RequireTLS,
			Storage:            kv,
			StorageName:        cfg.StorageBackend,
			AuthService:        authService,
			ProfileService:     profile.NewService(profile.NewKVRepository(kv), log),
			DailyLogService:    dailylog.NewService(kv, log),
			WaitlistService:    waitlist.NewService(kv, flags, log),
			FeatureFlagService: flags,
			Classifier:         classifierService,
			Registry:           registry,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func flushTelemetry(log zerolog.Logger, tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to flush telemetry")
	}
}
