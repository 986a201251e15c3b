package dailylog

import (
	"math"

	"github.com/levelup/levelup/internal/metabolic"
)

// Targets are the daily goals a log is measured against.
type Targets struct {
	Calories int              `json:"calories"`
	Macros   metabolic.Macros `json:"macros"`
}

// Progress compares one eaten total with its target.
type Progress struct {
	Eaten     int `json:"eaten"`
	Target    int `json:"target"`
	Remaining int `json:"remaining"`
	// Percent is eaten/target as a whole percentage, capped at 100.
	Percent int `json:"percent"`
}

// Summary is the dashboard view of a day.
type Summary struct {
	Date      string   `json:"date"`
	Calories  Progress `json:"calories"`
	Protein   Progress `json:"protein"`
	Carbs     Progress `json:"carbs"`
	Fats      Progress `json:"fats"`
	ItemCount int      `json:"itemCount"`
	// OverTarget is set once calories eaten exceed the target.
	OverTarget   bool    `json:"overTarget"`
	WaterGlasses int     `json:"waterGlasses"`
	Steps        int     `json:"steps"`
	SleepHours   float64 `json:"sleepHours"`
	Mood         Mood    `json:"mood"`
}

// Summarize totals every meal of the day and compares the totals with
// targets.
func Summarize(l *Log, targets Targets) Summary {
	var calories, protein, carbs, fats int
	items := l.Meals.All()
	for _, item := range items {
		calories += item.Calories
		protein += item.Protein
		carbs += item.Carbs
		fats += item.Fats
	}

	return Summary{
		Date:         l.Date,
		Calories:     progress(calories, targets.Calories),
		Protein:      progress(protein, targets.Macros.ProteinG),
		Carbs:        progress(carbs, targets.Macros.CarbsG),
		Fats:         progress(fats, targets.Macros.FatsG),
		ItemCount:    len(items),
		OverTarget:   calories > targets.Calories,
		WaterGlasses: l.WaterGlasses,
		Steps:        l.Steps,
		SleepHours:   l.SleepHours,
		Mood:         l.Mood,
	}
}

func progress(eaten, target int) Progress {
	p := Progress{Eaten: eaten, Target: target}
	if target > eaten {
		p.Remaining = target - eaten
	}

	denominator := target
	if denominator <= 0 {
		denominator = 1
	}
	pct := math.Floor(float64(eaten)*100/float64(denominator) + 0.5)
	switch {
	case pct > 100:
		pct = 100
	case pct < 0:
		pct = 0
	}
	p.Percent = int(pct)
	return p
}
