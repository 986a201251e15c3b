package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/database"
)

// Backend is a KV that can report whether it is reachable.
type Backend interface {
	KV
	Ping(ctx context.Context) error
}

// OpenConfig selects and configures a backend.
type OpenConfig struct {
	// Postgres selects PostgresKV. Otherwise an empty MemoryKV is used.
	Postgres bool
	Database database.Config
	Logger   zerolog.Logger
}

// Open creates the configured backend, creating the kv_entries table when
// Postgres is used. The returned close function releases the connection pool.
func Open(ctx context.Context, cfg OpenConfig) (Backend, func(), error) {
	if !cfg.Postgres {
		cfg.Logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return NewMemoryKV(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.Database, cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	kv := NewPostgresKV(pool)
	if err := kv.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cfg.Logger.Info().Str("dsn", cfg.Database.Redacted()).Msg("database connected")
	return kv, pool.Close, nil
}
