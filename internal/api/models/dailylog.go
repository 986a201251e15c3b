package models

// MealItemRequest adds a food to a meal.
type MealItemRequest struct {
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	Protein  int     `json:"protein"`
	Carbs    int     `json:"carbs"`
	Fats     int     `json:"fats"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// DailyLogUpdateRequest updates the non-meal parts of a day.
// Nil fields are left unchanged.
type DailyLogUpdateRequest struct {
	WaterGlasses *int     `json:"waterGlasses,omitempty"`
	Steps        *int     `json:"steps,omitempty"`
	SleepHours   *float64 `json:"sleepHours,omitempty"`
	Mood         *string  `json:"mood,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}
