// Package dailylog records what was eaten on each day alongside water,
// steps, sleep and mood, and summarises a day against the profile targets.
package dailylog

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the format of log dates.
const DateLayout = "2006-01-02"

// Errors.
var (
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidMealType = errors.New("unknown meal type")
	ErrInvalidMood     = errors.New("unknown mood")
	ErrMealNotFound    = errors.New("meal item not found")
	ErrInvalidMealItem = errors.New("invalid meal item")
	ErrInvalidCounters = errors.New("water, steps and sleep must be within range")
)

// MealType is one of the four meals of a day.
type MealType string

// Meal types in display order.
const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnacks    MealType = "snacks"
)

// MealTypes returns all meal types in display order.
func MealTypes() []MealType {
	return []MealType{MealBreakfast, MealLunch, MealDinner, MealSnacks}
}

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnacks:
		return true
	}
	return false
}

// Mood is how the day felt. The empty mood means not recorded.
type Mood string

// Moods.
const (
	MoodGreat    Mood = "great"
	MoodFine     Mood = "fine"
	MoodLow      Mood = "low"
	MoodCravings Mood = "cravings"
)

// Moods returns all recordable moods.
func Moods() []Mood {
	return []Mood{MoodGreat, MoodFine, MoodLow, MoodCravings}
}

// Valid reports whether m is empty or a known mood.
func (m Mood) Valid() bool {
	switch m {
	case "", MoodGreat, MoodFine, MoodLow, MoodCravings:
		return true
	}
	return false
}

// MealItem is one food in a meal. Nutrition values are per item as eaten.
type MealItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	Protein  int     `json:"protein"`
	Carbs    int     `json:"carbs"`
	Fats     int     `json:"fats"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Meals holds the items of each meal.
type Meals struct {
	Breakfast []MealItem `json:"breakfast"`
	Lunch     []MealItem `json:"lunch"`
	Dinner    []MealItem `json:"dinner"`
	Snacks    []MealItem `json:"snacks"`
}

// Items returns a pointer to the slice for meal type t, or nil.
func (m *Meals) Items(t MealType) *[]MealItem {
	switch t {
	case MealBreakfast:
		return &m.Breakfast
	case MealLunch:
		return &m.Lunch
	case MealDinner:
		return &m.Dinner
	case MealSnacks:
		return &m.Snacks
	}
	return nil
}

// All returns every item of the day in meal order.
func (m *Meals) All() []MealItem {
	all := make([]MealItem, 0, len(m.Breakfast)+len(m.Lunch)+len(m.Dinner)+len(m.Snacks))
	all = append(all, m.Breakfast...)
	all = append(all, m.Lunch...)
	all = append(all, m.Dinner...)
	return append(all, m.Snacks...)
}

// Log is the record of one day.
type Log struct {
	Date         string  `json:"date"`
	Meals        Meals   `json:"meals"`
	WaterGlasses int     `json:"waterGlasses"`
	Steps        int     `json:"steps"`
	SleepHours   float64 `json:"sleepHours"`
	Mood         Mood    `json:"mood"`
	Notes        string  `json:"notes"`
}

// NewLog returns the empty log for date.
func NewLog(date string) *Log {
	return &Log{
		Date: date,
		Meals: Meals{
			Breakfast: []MealItem{},
			Lunch:     []MealItem{},
			Dinner:    []MealItem{},
			Snacks:    []MealItem{},
		},
	}
}

// ValidateDate checks that date is a real calendar date in DateLayout.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// Today returns the date of now in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Validate checks the log's date, mood and counters.
func (l *Log) Validate() error {
	if err := ValidateDate(l.Date); err != nil {
		return err
	}
	if !l.Mood.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMood, l.Mood)
	}
	if l.WaterGlasses < 0 || l.Steps < 0 || l.SleepHours < 0 || l.SleepHours > 24 {
		return ErrInvalidCounters
	}
	return nil
}
