package metabolic

import (
	"fmt"
	"math"

	"github.com/levelup/levelup/internal/api/models"
)

const (
	proteinPerKgCut     = 2.0
	proteinPerKgDefault = 2.2
	fatCalorieShare     = 0.25
	minCarbsG           = 50
	kcalPerGramProtein  = 4
	kcalPerGramCarbs    = 4
	kcalPerGramFat      = 9
	maleOffset          = 5
	femaleOffset        = -161
)

// Estimate computes BMR, TDEE, target calories and macros for a stated goal.
// Protein is set at 2.0 g/kg when cutting and 2.2 g/kg otherwise.
func Estimate(p Profile) (*Result, error) {
	fieldErrors := validateBiometrics(p.Sex, p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel)
	if p.Goal == "" {
		fieldErrors = append(fieldErrors, required("goal"))
	} else if !p.Goal.Valid() {
		fieldErrors = append(fieldErrors, unknown("goal", string(p.Goal)))
	}
	if len(fieldErrors) > 0 {
		return nil, &InvalidProfileError{Errors: fieldErrors}
	}

	proteinRate := proteinPerKgDefault
	if p.Goal == GoalLoseWeight {
		proteinRate = proteinPerKgCut
	}
	return compute(p.Sex, p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel, p.Goal, proteinRate), nil
}

// EstimateFromStoredProfile computes targets for a saved profile. The goal is
// inferred from the target weight: below the current weight means losing,
// above means gaining, equal means maintaining. Protein is always 2.0 g/kg.
//
// This can disagree with Estimate for the same person; the two are kept apart
// so that goal-based calculations do not shift.
func EstimateFromStoredProfile(p StoredProfile) (*Result, error) {
	fieldErrors := validateBiometrics(p.Sex, p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel)
	fieldErrors = append(fieldErrors, positiveFinite("targetWeightKg", p.TargetWeightKg)...)
	if len(fieldErrors) > 0 {
		return nil, &InvalidProfileError{Errors: fieldErrors}
	}

	return compute(p.Sex, p.Age, p.HeightCm, p.WeightKg, p.ActivityLevel, InferGoal(p.WeightKg, p.TargetWeightKg), proteinPerKgCut), nil
}

// InferGoal maps a weight delta onto a goal.
func InferGoal(weightKg, targetWeightKg float64) Goal {
	switch {
	case targetWeightKg < weightKg:
		return GoalLoseWeight
	case targetWeightKg > weightKg:
		return GoalGainMuscle
	default:
		return GoalMaintain
	}
}

// BMR returns the rounded Mifflin-St Jeor basal metabolic rate. The caller
// must pass validated input.
func BMR(sex Sex, age int, heightCm, weightKg float64) int {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == SexMale {
		return round(base + maleOffset)
	}
	return round(base + femaleOffset)
}

func compute(sex Sex, age int, heightCm, weightKg float64, activity ActivityLevel, goal Goal, proteinRate float64) *Result {
	bmr := BMR(sex, age, heightCm, weightKg)
	tdee := round(float64(bmr) * activity.Multiplier())
	target := round(float64(tdee) + goal.CalorieModifier())

	result := &Result{
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: target,
		Goal:           goal,
	}

	protein := round(weightKg * proteinRate)
	proteinCalories := protein * kcalPerGramProtein
	fats := round(float64(target) * fatCalorieShare / kcalPerGramFat)
	fatsCalories := fats * kcalPerGramFat
	carbs := round(float64(target-proteinCalories-fatsCalories) / kcalPerGramCarbs)

	if carbs < minCarbsG {
		carbs = minCarbsG
		fats = round(float64(target-proteinCalories-carbs*kcalPerGramCarbs) / kcalPerGramFat)
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarningCarbsFloorApplied,
			Message: fmt.Sprintf("carbs raised to the %dg minimum; fats reduced to compensate", minCarbsG),
		})
	}
	if fats < 0 {
		result.Infeasible = true
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarningInfeasibleFatTarget,
			Message: fmt.Sprintf("protein and minimum carbs exceed %d kcal; fats computed as %dg and clamped to 0", target, fats),
		})
		fats = 0
	}

	result.Macros = Macros{ProteinG: protein, CarbsG: carbs, FatsG: fats}
	return result
}

func validateBiometrics(sex Sex, age int, heightCm, weightKg float64, activity ActivityLevel) []models.FieldError {
	var fieldErrors []models.FieldError

	switch {
	case sex == "":
		fieldErrors = append(fieldErrors, required("sex"))
	case !sex.Valid():
		fieldErrors = append(fieldErrors, unknown("sex", string(sex)))
	case sex == SexOther:
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "sex",
			Message: "the Mifflin-St Jeor equation only defines offsets for male and female",
			Code:    CodeUnsupportedForFormula,
		})
	}

	if age <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "age", Message: "must be a positive number of years", Code: CodeNotPositive})
	}
	fieldErrors = append(fieldErrors, positiveFinite("heightCm", heightCm)...)
	fieldErrors = append(fieldErrors, positiveFinite("weightKg", weightKg)...)

	if activity == "" {
		fieldErrors = append(fieldErrors, required("activityLevel"))
	} else if !activity.Valid() {
		fieldErrors = append(fieldErrors, unknown("activityLevel", string(activity)))
	}

	return fieldErrors
}

func positiveFinite(field string, v float64) []models.FieldError {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []models.FieldError{{Field: field, Message: "must be a finite number", Code: CodeNotFinite}}
	}
	if v <= 0 {
		return []models.FieldError{{Field: field, Message: "must be greater than 0", Code: CodeNotPositive}}
	}
	return nil
}

func required(field string) models.FieldError {
	return models.FieldError{Field: field, Message: "is required", Code: CodeRequired}
}

func unknown(field, value string) models.FieldError {
	return models.FieldError{Field: field, Message: fmt.Sprintf("unknown value %q", value), Code: CodeUnknownValue}
}

// round rounds half up, so 1642.5 becomes 1643 and -7.5 becomes -7.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
