package dailylog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/metabolic"
	"github.com/levelup/levelup/internal/store"
)

func newService(t *testing.T) *dailylog.Service {
	t.Helper()
	return dailylog.NewService(store.NewMemoryKV(), zerolog.Nop())
}

func ptr[T any](v T) *T { return &v }

func TestService_Get_MissingDayIsEmpty(t *testing.T) {
	svc := newService(t)

	l, err := svc.Get(context.Background(), "2026-10-15")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-15", l.Date)
	assert.Empty(t, l.Meals.All())
	assert.Equal(t, dailylog.Mood(""), l.Mood)

	raw, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"breakfast":[]`)
}

func TestService_Get_InvalidDate(t *testing.T) {
	svc := newService(t)

	for _, date := range []string{"", "15-10-2026", "2026-02-30", "2026-10-15T00:00:00Z", "today"} {
		_, err := svc.Get(context.Background(), date)
		assert.ErrorIs(t, err, dailylog.ErrInvalidDate, date)
	}
}

func TestService_AddAndRemoveMeal(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	item, err := svc.AddMeal(ctx, "2026-10-15", dailylog.MealLunch, &models.MealItemRequest{
		Name:     " Biryani ",
		Calories: 450,
		Protein:  25,
		Carbs:    55,
		Fats:     12,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^meal_[0-9a-f-]{36}$`, item.ID)
	assert.Equal(t, "Biryani", item.Name)
	assert.Equal(t, float64(1), item.Quantity)
	assert.Equal(t, "serving", item.Unit)

	l, err := svc.Get(ctx, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, l.Meals.Lunch, 1)
	assert.Equal(t, item.ID, l.Meals.Lunch[0].ID)

	require.NoError(t, svc.RemoveMeal(ctx, "2026-10-15", dailylog.MealLunch, item.ID))
	assert.ErrorIs(t, svc.RemoveMeal(ctx, "2026-10-15", dailylog.MealLunch, item.ID), dailylog.ErrMealNotFound)

	l, err = svc.Get(ctx, "2026-10-15")
	require.NoError(t, err)
	assert.Empty(t, l.Meals.Lunch)
}

func TestService_ConcurrentWritesKeepEveryItem(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	const date = "2026-10-15"

	const n = 200
	var wg sync.WaitGroup
	errs := make(chan error, n+1)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddMeal(ctx, date, dailylog.MealLunch, &models.MealItemRequest{
				Name:     fmt.Sprintf("roti %d", i),
				Calories: 120,
			})
			errs <- err
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Update(ctx, date, &models.DailyLogUpdateRequest{WaterGlasses: ptr(4)})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	l, err := svc.Get(ctx, date)
	require.NoError(t, err)
	assert.Len(t, l.Meals.Lunch, n)
	assert.Equal(t, 4, l.WaterGlasses)
}

func TestService_AddMeal_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddMeal(ctx, "2026-10-15", "brunch", &models.MealItemRequest{Name: "eggs"})
	assert.ErrorIs(t, err, dailylog.ErrInvalidMealType)

	_, err = svc.AddMeal(ctx, "2026-10-15", dailylog.MealDinner, &models.MealItemRequest{Name: "  "})
	assert.ErrorIs(t, err, dailylog.ErrInvalidMealItem)

	_, err = svc.AddMeal(ctx, "2026-10-15", dailylog.MealDinner, &models.MealItemRequest{Name: "soup", Calories: -1})
	assert.ErrorIs(t, err, dailylog.ErrInvalidMealItem)

	_, err = svc.AddMeal(ctx, "bad", dailylog.MealDinner, &models.MealItemRequest{Name: "soup"})
	assert.ErrorIs(t, err, dailylog.ErrInvalidDate)
}

func TestService_Update(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	l, err := svc.Update(ctx, "2026-10-15", &models.DailyLogUpdateRequest{
		WaterGlasses: ptr(6),
		Steps:        ptr(8200),
		SleepHours:   ptr(7.5),
		Mood:         ptr("great"),
		Notes:        ptr("leg day"),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, l.WaterGlasses)
	assert.Equal(t, dailylog.MoodGreat, l.Mood)

	// Fields left nil are kept.
	l, err = svc.Update(ctx, "2026-10-15", &models.DailyLogUpdateRequest{Steps: ptr(9000)})
	require.NoError(t, err)
	assert.Equal(t, 6, l.WaterGlasses)
	assert.Equal(t, 9000, l.Steps)
	assert.Equal(t, "leg day", l.Notes)

	_, err = svc.Update(ctx, "2026-10-15", &models.DailyLogUpdateRequest{Mood: ptr("sleepy")})
	assert.ErrorIs(t, err, dailylog.ErrInvalidMood)

	_, err = svc.Update(ctx, "2026-10-15", &models.DailyLogUpdateRequest{SleepHours: ptr(25.0)})
	assert.ErrorIs(t, err, dailylog.ErrInvalidCounters)
}

func TestService_List(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, date := range []string{"2026-10-15", "2026-10-13", "2026-10-14"} {
		_, err := svc.AddMeal(ctx, date, dailylog.MealSnacks, &models.MealItemRequest{Name: "apple", Calories: 52})
		require.NoError(t, err)
	}

	logs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2026-10-13", logs[0].Date)
	assert.Equal(t, "2026-10-15", logs[2].Date)
}

func TestService_Clear(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, date := range []string{"2026-10-14", "2026-10-15"} {
		_, err := svc.AddMeal(ctx, date, dailylog.MealBreakfast, &models.MealItemRequest{Name: "idli", Calories: 58})
		require.NoError(t, err)
	}

	n, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	logs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSummarize(t *testing.T) {
	l := dailylog.NewLog("2026-10-15")
	l.Meals.Breakfast = []dailylog.MealItem{{Name: "oats", Calories: 350, Protein: 12, Carbs: 60, Fats: 7}}
	l.Meals.Dinner = []dailylog.MealItem{{Name: "chicken", Calories: 600, Protein: 55, Carbs: 10, Fats: 30}}
	l.WaterGlasses = 4

	targets := dailylog.Targets{
		Calories: 2000,
		Macros:   metabolic.Macros{ProteinG: 150, CarbsG: 200, FatsG: 30},
	}

	s := dailylog.Summarize(l, targets)

	assert.Equal(t, 2, s.ItemCount)
	assert.Equal(t, dailylog.Progress{Eaten: 950, Target: 2000, Remaining: 1050, Percent: 48}, s.Calories)
	assert.Equal(t, dailylog.Progress{Eaten: 67, Target: 150, Remaining: 83, Percent: 45}, s.Protein)
	// Fats are over target: nothing remaining, progress capped.
	assert.Equal(t, dailylog.Progress{Eaten: 37, Target: 30, Remaining: 0, Percent: 100}, s.Fats)
	assert.False(t, s.OverTarget)
	assert.Equal(t, 4, s.WaterGlasses)
}

func TestSummarize_ZeroTargets(t *testing.T) {
	empty := dailylog.Summarize(dailylog.NewLog("2026-10-15"), dailylog.Targets{})
	assert.Equal(t, 0, empty.Calories.Percent)

	l := dailylog.NewLog("2026-10-15")
	l.Meals.Snacks = []dailylog.MealItem{{Name: "cookie", Calories: 480}}
	s := dailylog.Summarize(l, dailylog.Targets{})
	assert.Equal(t, 100, s.Calories.Percent)
	assert.True(t, s.OverTarget)
}
