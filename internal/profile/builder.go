package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/metabolic"
)

// Builder assembles a profile from the onboarding steps. Steps may be given
// in any order; Build validates everything at once.
type Builder struct {
	p   Profile
	now func() time.Time
}

// NewBuilder returns a builder with the onboarding defaults filled in.
func NewBuilder() *Builder {
	return &Builder{
		p: Profile{
			Region:        DefaultRegion,
			SpiceLevel:    DefaultSpiceLevel,
			ActivityLevel: metabolic.ActivitySedentary,
		},
		now: time.Now,
	}
}

// BuilderFromRequest loads every step of an onboarding request.
func BuilderFromRequest(req *models.OnboardingRequest) *Builder {
	b := NewBuilder().
		Basics(req.Basics.Name, req.Basics.Age, metabolic.Sex(req.Basics.Sex)).
		Body(req.Body.HeightCm, req.Body.WeightKg, req.Body.TargetWeightKg, req.Body.TargetDate).
		Preferences(req.Preferences.DietTypes, req.Preferences.Region, req.Preferences.SpiceLevel, req.Preferences.CookingStyles).
		ShortGoal(req.ShortGoal)
	if req.Activity != "" {
		b.Activity(metabolic.ActivityLevel(req.Activity))
	}
	return b
}

// Basics sets the name, age and sex.
func (b *Builder) Basics(name string, age int, sex metabolic.Sex) *Builder {
	b.p.Name = strings.TrimSpace(name)
	b.p.Age = age
	b.p.Sex = sex
	return b
}

// Body sets the measurements and the weight target.
func (b *Builder) Body(heightCm, weightKg, targetWeightKg float64, targetDate string) *Builder {
	b.p.HeightCm = heightCm
	b.p.WeightKg = weightKg
	b.p.TargetWeightKg = targetWeightKg
	b.p.TargetDate = strings.TrimSpace(targetDate)
	return b
}

// Activity sets the activity level.
func (b *Builder) Activity(level metabolic.ActivityLevel) *Builder {
	b.p.ActivityLevel = level
	return b
}

// Preferences sets the diet preferences. Empty values keep the defaults.
func (b *Builder) Preferences(dietTypes []string, region string, spiceLevel int, cookingStyles []string) *Builder {
	b.p.DietTypes = dedupe(dietTypes)
	if region = strings.TrimSpace(region); region != "" {
		b.p.Region = region
	}
	if spiceLevel != 0 {
		b.p.SpiceLevel = spiceLevel
	}
	b.p.CookingStyles = dedupe(cookingStyles)
	return b
}

// ShortGoal sets the free-text goal.
func (b *Builder) ShortGoal(goal string) *Builder {
	b.p.ShortGoal = strings.TrimSpace(goal)
	return b
}

// Build validates the collected answers and computes the targets. Invalid
// answers are reported together in a *metabolic.InvalidProfileError.
func (b *Builder) Build() (*Profile, error) {
	p := b.p.clone()

	if p.Name == "" {
		p.Name = DefaultName
	}
	fieldErrs := validatePreferences(p)

	err := p.RecalculateTargets()
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

	now := b.now().UTC()
	p.ID = newID()
	p.OnboardingComplete = true
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func validatePreferences(p *Profile) []models.FieldError {
	var errs []models.FieldError
	if p.TargetDate != "" {
		if _, err := time.Parse(DateLayout, p.TargetDate); err != nil {
			errs = append(errs, models.FieldError{
				Field:   "targetDate",
				Code:    CodeInvalidDate,
				Message: fmt.Sprintf("targetDate must be a date in %s format", DateLayout),
			})
		}
	}
	if p.SpiceLevel < 1 || p.SpiceLevel > MaxSpiceLevel {
		errs = append(errs, models.FieldError{
			Field:   "spiceLevel",
			Code:    CodeOutOfRange,
			Message: fmt.Sprintf("spiceLevel must be between 1 and %d", MaxSpiceLevel),
		})
	}
	return errs
}

// Validation codes specific to profiles.
const (
	CodeInvalidDate = "INVALID_DATE"
	CodeOutOfRange  = "OUT_OF_RANGE"
)

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func newID() string {
	return "usr_" + uuid.New().String()[:22]
}
