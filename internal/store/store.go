// Package store provides the key-value persistence used for profiles, daily
// logs, the waitlist and feature flags.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// KV is a string-keyed store of JSON documents.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all entries whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Clear removes every key.
	Clear(ctx context.Context) error
}

// Entry is a stored key and its value.
type Entry struct {
	Key   string
	Value []byte
}
