package featureflags

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/levelup/levelup/internal/store"
)

const keyPrefix = "flag:"

// Repository stores flag values. The service always reads the whole table.
type Repository interface {
	// GetAllFlags retrieves all stored feature flags.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlags creates or updates feature flags.
	SetFlags(ctx context.Context, flags []*Flag) error
}

// KVRepository stores flags in a key-value store, one key per flag.
type KVRepository struct {
	kv store.KV
}

// NewKVRepository creates a flag repository on top of kv.
func NewKVRepository(kv store.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// GetAllFlags retrieves all stored feature flags.
func (r *KVRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	entries, err := r.kv.List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]*Flag, len(entries))
	for _, e := range entries {
		flag, err := decodeFlag(e.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", strings.TrimPrefix(e.Key, keyPrefix), err)
		}
		flags[flag.Key] = flag
	}
	return flags, nil
}

// SetFlags creates or updates feature flags.
func (r *KVRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now().UTC()
	for _, flag := range flags {
		if flag.UpdatedAt.IsZero() {
			flag.UpdatedAt = now
		}
		raw, err := json.Marshal(flag)
		if err != nil {
			return err
		}
		if err := r.kv.Put(ctx, keyPrefix+flag.Key, raw); err != nil {
			return err
		}
	}
	return nil
}

func decodeFlag(raw []byte) (*Flag, error) {
	var flag Flag
	if err := json.Unmarshal(raw, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// Ensure KVRepository implements Repository interface.
var _ Repository = (*KVRepository)(nil)
