// Package metabolic estimates daily energy needs and macro targets using the
// Mifflin-St Jeor equation.
package metabolic

import (
	"errors"
	"fmt"

	"github.com/levelup/levelup/internal/api/models"
)

// ErrInvalidProfile is returned when a profile cannot be fed into the formula.
var ErrInvalidProfile = errors.New("invalid profile")

// Validation codes reported on InvalidProfileError field errors.
const (
	CodeRequired              = "REQUIRED"
	CodeNotPositive           = "NOT_POSITIVE"
	CodeNotFinite             = "NOT_FINITE"
	CodeUnknownValue          = "UNKNOWN_VALUE"
	CodeUnsupportedForFormula = "UNSUPPORTED_FOR_FORMULA"
)

// Warning codes attached to a Result.
const (
	WarningCarbsFloorApplied   = "CARBS_FLOOR_APPLIED"
	WarningInfeasibleFatTarget = "INFEASIBLE_FAT_TARGET"
)

// Sex is the biological sex used to pick the formula offset.
type Sex string

// Sex values.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Valid reports whether s is a known value.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// ActivityLevel describes how active a person is day to day.
type ActivityLevel string

// Activity levels, least to most active.
const (
	ActivitySedentary   ActivityLevel = "sedentary"
	ActivityLight       ActivityLevel = "light"
	ActivityModerate    ActivityLevel = "moderate"
	ActivityVeryActive  ActivityLevel = "very_active"
	ActivityExtraActive ActivityLevel = "extra_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:   1.2,
	ActivityLight:       1.375,
	ActivityModerate:    1.55,
	ActivityVeryActive:  1.725,
	ActivityExtraActive: 1.9,
}

var activityLabels = map[ActivityLevel][2]string{
	ActivitySedentary:   {"Sedentary", "Little or no exercise"},
	ActivityLight:       {"Lightly Active", "Light exercise 1-3 days/week"},
	ActivityModerate:    {"Moderately Active", "Moderate exercise 3-5 days/week"},
	ActivityVeryActive:  {"Very Active", "Hard exercise 6-7 days/week"},
	ActivityExtraActive: {"Extra Active", "Very hard exercise & physical job"},
}

// ActivityLevels returns all activity levels in display order.
func ActivityLevels() []ActivityLevel {
	return []ActivityLevel{ActivitySedentary, ActivityLight, ActivityModerate, ActivityVeryActive, ActivityExtraActive}
}

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

// Multiplier returns the TDEE multiplier for a, or 0 if a is unknown.
func (a ActivityLevel) Multiplier() float64 {
	return activityMultipliers[a]
}

// Label returns the human readable name of the activity level.
func (a ActivityLevel) Label() string {
	return activityLabels[a][0]
}

// Description returns a short explanation of the activity level.
func (a ActivityLevel) Description() string {
	return activityLabels[a][1]
}

// Goal is the stated body composition objective.
type Goal string

// Goals.
const (
	GoalLoseWeight Goal = "lose_weight"
	GoalMaintain   Goal = "maintain"
	GoalGainMuscle Goal = "gain_muscle"
)

var goalModifiers = map[Goal]float64{
	GoalLoseWeight: -500,
	GoalMaintain:   0,
	GoalGainMuscle: 300,
}

var goalLabels = map[Goal]string{
	GoalLoseWeight: "Lose Weight",
	GoalMaintain:   "Maintain Weight",
	GoalGainMuscle: "Gain Muscle",
}

// Goals returns all goals in display order.
func Goals() []Goal {
	return []Goal{GoalLoseWeight, GoalMaintain, GoalGainMuscle}
}

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	_, ok := goalModifiers[g]
	return ok
}

// CalorieModifier returns the kcal offset applied to TDEE for g.
func (g Goal) CalorieModifier() float64 {
	return goalModifiers[g]
}

// Label returns the human readable name of the goal.
func (g Goal) Label() string {
	return goalLabels[g]
}

// Profile is the biometric input to Estimate.
type Profile struct {
	Sex           Sex           `json:"sex"`
	Age           int           `json:"age"`
	HeightCm      float64       `json:"heightCm"`
	WeightKg      float64       `json:"weightKg"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
	Goal          Goal          `json:"goal"`
}

// StoredProfile is the biometric input to EstimateFromStoredProfile. The goal
// is not stated; it follows from the target weight.
type StoredProfile struct {
	Sex            Sex           `json:"sex"`
	Age            int           `json:"age"`
	HeightCm       float64       `json:"heightCm"`
	WeightKg       float64       `json:"weightKg"`
	TargetWeightKg float64       `json:"targetWeightKg"`
	ActivityLevel  ActivityLevel `json:"activityLevel"`
}

// Macros holds daily macronutrient targets in grams.
type Macros struct {
	ProteinG int `json:"proteinG"`
	CarbsG   int `json:"carbsG"`
	FatsG    int `json:"fatsG"`
}

// Warning flags a computed value that needs attention.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the output of an estimate. All energy values are kcal/day.
type Result struct {
	BMR            int       `json:"bmr"`
	TDEE           int       `json:"tdee"`
	TargetCalories int       `json:"targetCalories"`
	Macros         Macros    `json:"macros"`
	Goal           Goal      `json:"goal"`
	Infeasible     bool      `json:"infeasible"`
	Warnings       []Warning `json:"warnings,omitempty"`
}

// HasWarning reports whether the result carries a warning with code.
func (r *Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// InvalidProfileError lists the fields that prevented an estimate.
type InvalidProfileError struct {
	Errors []models.FieldError
}

func (e *InvalidProfileError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid profile: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("invalid profile: %d invalid fields", len(e.Errors))
}

func (e *InvalidProfileError) Unwrap() error {
	return ErrInvalidProfile
}
