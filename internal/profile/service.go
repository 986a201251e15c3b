package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/metabolic"
)

// Service provides profile operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	// mu guards the stored profile across read-modify-write updates.
	mu sync.Mutex
}

// NewService creates a new profile service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Get returns the current profile.
func (s *Service) Get(ctx context.Context) (*Profile, error) {
	return s.repo.Get(ctx)
}

// Onboard builds a profile from the onboarding answers and stores it,
// replacing any previous profile.
func (s *Service) Onboard(ctx context.Context, req *models.OnboardingRequest) (*Profile, error) {
	b := BuilderFromRequest(req)
	b.now = s.now
	p, err := b.Build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	err = s.repo.Put(ctx, p)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("profile_id", p.ID).
		Str("goal", string(p.Goal)).
		Int("target_calories", p.TargetCalories).
		Msg("onboarding complete")
	return p, nil
}

// Update applies a partial update and recomputes the targets.
func (s *Service) Update(ctx context.Context, req *models.ProfileUpdateRequest) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	p := current.clone()
	applyUpdate(p, req)

	fieldErrs := validatePreferences(p)
	err = p.RecalculateTargets()
	var invalid *metabolic.InvalidProfileError
	switch {
	case errors.As(err, &invalid):
		fieldErrs = append(fieldErrs, invalid.Errors...)
	case err != nil:
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, &metabolic.InvalidProfileError{Errors: fieldErrs}
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecalculateTargets recomputes and stores the targets of the current
// profile, for example after the formula constants change.
func (s *Service) RecalculateTargets(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	before := p.TargetCalories
	if err := p.RecalculateTargets(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}

	if before != p.TargetCalories {
		s.logger.Info().
			Int("before", before).
			Int("after", p.TargetCalories).
			Msg("profile targets recalculated")
	}
	return p, nil
}

// Clear deletes the current profile.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Clear(ctx)
}

func applyUpdate(p *Profile, req *models.ProfileUpdateRequest) {
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			p.Name = name
		}
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Sex != nil {
		p.Sex = metabolic.Sex(*req.Sex)
	}
	if req.HeightCm != nil {
		p.HeightCm = *req.HeightCm
	}
	if req.WeightKg != nil {
		p.WeightKg = *req.WeightKg
	}
	if req.TargetWeightKg != nil {
		p.TargetWeightKg = *req.TargetWeightKg
	}
	if req.TargetDate != nil {
		p.TargetDate = strings.TrimSpace(*req.TargetDate)
	}
	if req.ActivityLevel != nil {
		p.ActivityLevel = metabolic.ActivityLevel(*req.ActivityLevel)
	}
	if req.DietTypes != nil {
		p.DietTypes = dedupe(req.DietTypes)
	}
	if req.Region != nil {
		p.Region = strings.TrimSpace(*req.Region)
	}
	if req.SpiceLevel != nil {
		p.SpiceLevel = *req.SpiceLevel
	}
	if req.CookingStyles != nil {
		p.CookingStyles = dedupe(req.CookingStyles)
	}
	if req.ShortGoal != nil {
		p.ShortGoal = strings.TrimSpace(*req.ShortGoal)
	}
}
