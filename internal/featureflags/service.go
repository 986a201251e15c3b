package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidFlagValue is returned when a flag value has the wrong type.
var ErrInvalidFlagValue = errors.New("invalid feature flag value")

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long a loaded snapshot is served. Defaults to a minute.
	CacheTTL time.Duration

	// DefaultFlags defaults to DefaultFlags().
	DefaultFlags map[string]*Flag

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service evaluates flags against a snapshot of every stored flag. The
// snapshot is reloaded once it is older than the TTL. A failed reload keeps
// the previous snapshot, and keys missing from the snapshot fall back to
// their defaults.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	ttl      time.Duration
	defaults map[string]*Flag
	now      func() time.Time

	mu       sync.RWMutex
	stored   map[string]*Flag // replaced, never mutated
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		ttl:      cfg.CacheTTL,
		defaults: cfg.DefaultFlags,
		now:      cfg.Now,
	}
	if s.ttl <= 0 {
		s.ttl = time.Minute
	}
	if s.defaults == nil {
		s.defaults = DefaultFlags()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetFlag returns the stored flag, its default, or nil for an unknown key.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag, ok := s.snapshot(ctx)[key]; ok {
		return flag
	}
	return s.defaults[key]
}

// ListFlags returns every known flag, stored values over defaults, sorted by key.
func (s *Service) ListFlags(ctx context.Context) []*Flag {
	stored := s.snapshot(ctx)

	out := make([]*Flag, 0, len(s.defaults)+len(stored))
	for key, flag := range s.defaults {
		if _, ok := stored[key]; !ok {
			out = append(out, flag)
		}
	}
	for _, flag := range stored {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SetFlags stores the given values and returns them sorted by key. Values for
// well-known flags must have the same JSON type as their default.
func (s *Service) SetFlags(ctx context.Context, values map[string]interface{}) ([]*Flag, error) {
	now := s.now().UTC()
	flags := make([]*Flag, 0, len(values))
	for key, value := range values {
		if def, ok := s.defaults[key]; ok && !sameKind(def.Value, value) {
			return nil, fmt.Errorf("%w: %s expects a %T", ErrInvalidFlagValue, key, def.Value)
		}
		flags = append(flags, &Flag{Key: key, Value: value, UpdatedAt: now})
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Key < flags[j].Key })

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if !s.loadedAt.IsZero() {
		next := make(map[string]*Flag, len(s.stored)+len(flags))
		for k, v := range s.stored {
			next[k] = v
		}
		for _, flag := range flags {
			next[flag.Key] = flag
		}
		s.stored = next
	}
	s.mu.Unlock()

	s.logger.Info().Int("count", len(flags)).Msg("feature flags updated")
	return flags, nil
}

// InvalidateCache makes the next read reload from the repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

// IsEnabled returns true if the flag with the given key is enabled (truthy).
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	if s == nil {
		return false
	}
	return s.GetFlag(ctx, key).BoolValue(false)
}

func (s *Service) snapshot(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	stored, loadedAt := s.stored, s.loadedAt
	s.mu.RUnlock()

	if !loadedAt.IsZero() && s.now().Sub(loadedAt) < s.ttl {
		return stored
	}

	flags, err := s.repo.GetAllFlags(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Msg("reloading feature flags failed, serving last known values")
		return s.stored
	}
	s.stored = flags
	s.loadedAt = s.now()
	return flags
}

func sameKind(a, b interface{}) bool {
	switch a.(type) {
	case bool:
		_, ok := b.(bool)
		return ok
	case string:
		_, ok := b.(string)
		return ok
	case float64, int:
		switch b.(type) {
		case float64, int:
			return true
		}
		return false
	}
	return true
}

// Convenience methods for well-known flags. A nil service reports defaults.

// IsImageAnalysisDisabled returns true if photo recognition is switched off.
func (s *Service) IsImageAnalysisDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableImageAnalysis)
}

// IsWaitlistOpen returns true if waitlist signups are accepted.
func (s *Service) IsWaitlistOpen(ctx context.Context) bool {
	if s == nil {
		return true
	}
	return s.GetFlag(ctx, FlagWaitlistOpen).BoolValue(true)
}

// ClassifierProvider returns the name of the preferred image classifier.
func (s *Service) ClassifierProvider(ctx context.Context) string {
	if s == nil {
		return ""
	}
	return s.GetFlag(ctx, FlagClassifierProvider).StringValue("")
}
