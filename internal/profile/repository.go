package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/levelup/levelup/internal/store"
)

// StorageKey is the key the profile is stored under.
const StorageKey = "user_profile"

// Repository persists the current profile.
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	Put(ctx context.Context, p *Profile) error
	Clear(ctx context.Context) error
}

// KVRepository stores the profile as a single JSON document.
type KVRepository struct {
	kv store.KV
}

// NewKVRepository creates a profile repository on top of kv.
func NewKVRepository(kv store.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// Get returns the stored profile or ErrProfileNotFound.
func (r *KVRepository) Get(ctx context.Context) (*Profile, error) {
	raw, err := r.kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Put replaces the stored profile.
func (r *KVRepository) Put(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return r.kv.Put(ctx, StorageKey, raw)
}

// Clear removes the stored profile.
func (r *KVRepository) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, StorageKey)
}
