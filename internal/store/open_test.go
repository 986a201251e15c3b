package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/database"
	"github.com/levelup/levelup/internal/store"
)

func TestOpen_Memory(t *testing.T) {
	kv, closeFn, err := store.Open(context.Background(), store.OpenConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &store.MemoryKV{}, kv)
	assert.NoError(t, kv.Ping(context.Background()))
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	_, _, err := store.Open(context.Background(), store.OpenConfig{
		Postgres: true,
		Database: database.Config{
			Host:           "127.0.0.1",
			Port:           1,
			User:           "levelup",
			Database:       "levelup",
			SSLMode:        "disable",
			ConnectTimeout: 500 * time.Millisecond,
		},
		Logger: zerolog.Nop(),
	})

	assert.ErrorContains(t, err, "connecting to database")
}
