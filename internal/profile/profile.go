// Package profile stores the current user's profile and keeps its calorie
// and macro targets in step with the biometrics.
//
// There is a single profile per deployment. Nothing here identifies a
// person beyond the display name they chose during onboarding.
package profile

import (
	"errors"
	"time"

	"github.com/levelup/levelup/internal/metabolic"
)

// ErrProfileNotFound is returned when onboarding has not happened yet.
var ErrProfileNotFound = errors.New("profile not found")

// DateLayout is the calendar date format used for target dates.
const DateLayout = "2006-01-02"

// Onboarding defaults for answers the user skipped.
const (
	DefaultName       = "Guest"
	DefaultRegion     = "North"
	DefaultSpiceLevel = 2
	MaxSpiceLevel     = 3
)

// Profile is the stored user profile including computed targets.
type Profile struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Age  int           `json:"age"`
	Sex  metabolic.Sex `json:"sex"`

	HeightCm       float64 `json:"heightCm"`
	WeightKg       float64 `json:"weightKg"`
	TargetWeightKg float64 `json:"targetWeightKg"`
	// TargetDate is YYYY-MM-DD or empty.
	TargetDate    string                  `json:"targetDate,omitempty"`
	ActivityLevel metabolic.ActivityLevel `json:"activityLevel"`

	DietTypes     []string `json:"dietType"`
	Region        string   `json:"region"`
	SpiceLevel    int      `json:"spiceLevel"`
	CookingStyles []string `json:"cookingStyle"`
	ShortGoal     string   `json:"shortGoal"`

	BMR            int                 `json:"bmr"`
	TDEE           int                 `json:"tdee"`
	TargetCalories int                 `json:"targetCalories"`
	Goal           metabolic.Goal      `json:"goal"`
	MacroTargets   metabolic.Macros    `json:"macroTargets"`
	Warnings       []metabolic.Warning `json:"warnings,omitempty"`

	OnboardingComplete bool      `json:"onboardingComplete"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Biometrics returns the estimator input for this profile.
func (p *Profile) Biometrics() metabolic.StoredProfile {
	return metabolic.StoredProfile{
		Sex:            p.Sex,
		Age:            p.Age,
		HeightCm:       p.HeightCm,
		WeightKg:       p.WeightKg,
		TargetWeightKg: p.TargetWeightKg,
		ActivityLevel:  p.ActivityLevel,
	}
}

// RecalculateTargets recomputes the calorie and macro targets from the
// current biometrics. The profile is left untouched on error.
func (p *Profile) RecalculateTargets() error {
	result, err := metabolic.EstimateFromStoredProfile(p.Biometrics())
	if err != nil {
		return err
	}
	p.BMR = result.BMR
	p.TDEE = result.TDEE
	p.TargetCalories = result.TargetCalories
	p.Goal = result.Goal
	p.MacroTargets = result.Macros
	p.Warnings = result.Warnings
	return nil
}

func (p *Profile) clone() *Profile {
	c := *p
	c.DietTypes = append([]string(nil), p.DietTypes...)
	c.CookingStyles = append([]string(nil), p.CookingStyles...)
	c.Warnings = append([]metabolic.Warning(nil), p.Warnings...)
	return &c
}
