// Package waitlist collects early-access signups.
package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/store"
)

// StorageKey is the key the list is stored under.
const StorageKey = "waitlist"

// Errors.
var (
	ErrWaitlistClosed  = errors.New("waitlist is closed")
	ErrAlreadySignedUp = errors.New("email is already on the waitlist")
	ErrInvalidSignup   = errors.New("invalid waitlist signup")
)

// Entry is one signup.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Goal      string    `json:"goal"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service manages the waitlist.
type Service struct {
	kv           store.KV
	featureFlags *featureflags.Service
	logger       zerolog.Logger
	now          func() time.Time

	// mu serialises the read-modify-write of the stored list.
	mu sync.Mutex
}

// NewService creates a waitlist service. flags may be nil, in which case the
// waitlist is always open.
func NewService(kv store.KV, flags *featureflags.Service, logger zerolog.Logger) *Service {
	return &Service{kv: kv, featureFlags: flags, logger: logger, now: time.Now}
}

// Add validates and stores a signup. Emails are compared case-insensitively
// and may only sign up once.
func (s *Service) Add(ctx context.Context, req *models.WaitlistSignupRequest) (*Entry, error) {
	if !s.featureFlags.IsWaitlistOpen(ctx) {
		return nil, ErrWaitlistClosed
	}

	entry, err := newEntry(req, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Email, entry.Email) {
			return nil, ErrAlreadySignedUp
		}
	}

	entries = append(entries, *entry)
	if err := s.save(ctx, entries); err != nil {
		return nil, err
	}

	s.logger.Info().Str("entry_id", entry.ID).Int("total", len(entries)).Msg("waitlist signup")
	return entry, nil
}

// List returns every signup in the order they arrived.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Clear removes every signup.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, StorageKey)
}

func (s *Service) load(ctx context.Context) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding waitlist: %w", err)
	}
	return entries, nil
}

func (s *Service) save(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding waitlist: %w", err)
	}
	return s.kv.Put(ctx, StorageKey, raw)
}

func newEntry(req *models.WaitlistSignupRequest, now time.Time) (*Entry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSignup)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidSignup)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is not a valid address", ErrInvalidSignup)
	}

	entry := &Entry{
		ID:        "wl_" + uuid.New().String(),
		Name:      name,
		Email:     email,
		Goal:      strings.TrimSpace(req.Goal),
		CreatedAt: now.UTC(),
	}
	if req.Phone != nil {
		entry.Phone = strings.TrimSpace(*req.Phone)
	}
	return entry, nil
}
