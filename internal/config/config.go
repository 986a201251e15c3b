// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// placeholderKey is shipped in example env files and counts as unset.
const placeholderKey = "PLACEHOLDER_API_KEY"

// DefaultJWTSigningKey is used outside production when JWT_SIGNING_KEY is unset.
const DefaultJWTSigningKey = "local-dev-signing-key-change-in-production"

// Config is the full service configuration.
type Config struct {
	Port        string
	Environment string

	OTELEnabled     bool
	OTLPEndpoint    string
	OTELSampleRatio float64

	// StorageBackend is StorageMemory or StoragePostgres.
	StorageBackend string

	ClarifaiPAT     string
	ClarifaiBaseURL string

	RekognitionEnabled bool
	AWSRegion          string

	AdminUsername string
	AdminPassword string
	JWTSigningKey string
	AdminTokenTTL time.Duration

	CORSAllowedOrigins []string
	RequireTLS         bool

	FlagCacheTTL time.Duration

	PubSubProjectID      string
	PubSubSubscriptionID string
	WorkerTickInterval   time.Duration
	WorkerHealthPort     string
}

// Load reads an optional .env file and then the environment. Variables that
// are already set take precedence over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                 getEnvOrDefault("APP_PORT", "8080"),
		Environment:          getEnvOrDefault("APP_ENV", "development"),
		OTELEnabled:          os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:         getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		StorageBackend:       getEnvOrDefault("STORAGE_BACKEND", StorageMemory),
		ClarifaiPAT:          os.Getenv("CLARIFAI_PAT"),
		ClarifaiBaseURL:      os.Getenv("CLARIFAI_BASE_URL"),
		RekognitionEnabled:   os.Getenv("REKOGNITION_ENABLED") == "true",
		AWSRegion:            getEnvOrDefault("AWS_REGION", "us-east-1"),
		AdminUsername:        os.Getenv("ADMIN_USERNAME"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		JWTSigningKey:        os.Getenv("JWT_SIGNING_KEY"),
		CORSAllowedOrigins:   splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RequireTLS:           os.Getenv("REQUIRE_TLS") == "true",
		PubSubProjectID:      os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscriptionID: getEnvOrDefault("PUBSUB_SUBSCRIPTION_ID", "levelup-jobs"),
		WorkerHealthPort:     getEnvOrDefault("WORKER_HEALTH_PORT", "8081"),
	}

	if cfg.ClarifaiPAT == placeholderKey {
		cfg.ClarifaiPAT = ""
	}
	// Older deployments of the web client used the Vite-prefixed name.
	if cfg.ClarifaiPAT == "" {
		if pat := os.Getenv("VITE_CLARIFAI_PAT"); pat != placeholderKey {
			cfg.ClarifaiPAT = pat
		}
	}

	var err error
	if cfg.AdminTokenTTL, err = durationFromEnv("ADMIN_TOKEN_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.FlagCacheTTL, err = durationFromEnv("FLAG_CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.WorkerTickInterval, err = durationFromEnv("WORKER_TICK_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return Config{}, fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1, got %q", v)
		}
		cfg.OTELSampleRatio = ratio
	}

	if cfg.StorageBackend != StorageMemory && cfg.StorageBackend != StoragePostgres {
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.StorageBackend)
	}

	if cfg.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SIGNING_KEY is required in production")
		}
		cfg.JWTSigningKey = DefaultJWTSigningKey
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// ClarifaiConfigured reports whether a usable Clarifai token is present.
func (c Config) ClarifaiConfigured() bool {
	return c.ClarifaiPAT != ""
}

// AdminConfigured reports whether admin credentials are set.
func (c Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
