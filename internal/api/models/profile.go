package models

// OnboardingRequest carries the answers of every onboarding step.
type OnboardingRequest struct {
	Basics      OnboardingBasics      `json:"basics"`
	Body        OnboardingBody        `json:"body"`
	Activity    string                `json:"activityLevel"`
	Preferences OnboardingPreferences `json:"preferences"`
	ShortGoal   string                `json:"shortGoal,omitempty"`
}

// OnboardingBasics is the first onboarding step.
type OnboardingBasics struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
	Sex  string `json:"sex"`
}

// OnboardingBody is the body measurement step.
type OnboardingBody struct {
	HeightCm       float64 `json:"heightCm"`
	WeightKg       float64 `json:"weightKg"`
	TargetWeightKg float64 `json:"targetWeightKg"`
	// TargetDate is a calendar date, YYYY-MM-DD.
	TargetDate string `json:"targetDate,omitempty"`
}

// OnboardingPreferences is the diet preference step.
type OnboardingPreferences struct {
	DietTypes     []string `json:"dietTypes,omitempty"`
	Region        string   `json:"region,omitempty"`
	// SpiceLevel is 1 (mild) to 3 (hot). Zero means not answered.
	SpiceLevel    int      `json:"spiceLevel,omitempty"`
	CookingStyles []string `json:"cookingStyles,omitempty"`
}

// ProfileUpdateRequest is a partial update of the current profile.
// Nil fields are left unchanged.
type ProfileUpdateRequest struct {
	Name           *string  `json:"name,omitempty"`
	Age            *int     `json:"age,omitempty"`
	Sex            *string  `json:"sex,omitempty"`
	HeightCm       *float64 `json:"heightCm,omitempty"`
	WeightKg       *float64 `json:"weightKg,omitempty"`
	TargetWeightKg *float64 `json:"targetWeightKg,omitempty"`
	TargetDate     *string  `json:"targetDate,omitempty"`
	ActivityLevel  *string  `json:"activityLevel,omitempty"`
	DietTypes      []string `json:"dietTypes,omitempty"`
	Region         *string  `json:"region,omitempty"`
	SpiceLevel     *int     `json:"spiceLevel,omitempty"`
	CookingStyles  []string `json:"cookingStyles,omitempty"`
	ShortGoal      *string  `json:"shortGoal,omitempty"`
}
