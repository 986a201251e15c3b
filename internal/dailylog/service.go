package dailylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/store"
)

const keyPrefix = "daily_log:"

// Item defaults applied by AddMeal.
const (
	DefaultQuantity = 1
	DefaultUnit     = "serving"
)

// Service reads and writes daily logs.
type Service struct {
	kv     store.KV
	logger zerolog.Logger

	// mu serialises writes so a read-modify-write of one day's log is not
	// overwritten by another.
	mu sync.Mutex
}

// NewService creates a daily log service on top of kv.
func NewService(kv store.KV, logger zerolog.Logger) *Service {
	return &Service{kv: kv, logger: logger}
}

// Get returns the log for date. A day with nothing recorded yields an
// empty log, not an error.
func (s *Service) Get(ctx context.Context, date string) (*Log, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	raw, err := s.kv.Get(ctx, keyPrefix+date)
	if errors.Is(err, store.ErrNotFound) {
		return NewLog(date), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeLog(raw)
}

// Save validates and stores a whole log.
func (s *Service) Save(ctx context.Context, l *Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, l)
}

func (s *Service) save(ctx context.Context, l *Log) error {
	if err := l.Validate(); err != nil {
		return err
	}
	normalize(l)

	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	return s.kv.Put(ctx, keyPrefix+l.Date, raw)
}

// Update applies the non-meal fields of req to the log for date.
func (s *Service) Update(ctx context.Context, date string, req *models.DailyLogUpdateRequest) (*Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.Get(ctx, date)
	if err != nil {
		return nil, err
	}

	if req.WaterGlasses != nil {
		l.WaterGlasses = *req.WaterGlasses
	}
	if req.Steps != nil {
		l.Steps = *req.Steps
	}
	if req.SleepHours != nil {
		l.SleepHours = *req.SleepHours
	}
	if req.Mood != nil {
		l.Mood = Mood(*req.Mood)
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}

	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// AddMeal appends an item to a meal and returns the stored item.
func (s *Service) AddMeal(ctx context.Context, date string, mealType MealType, req *models.MealItemRequest) (*MealItem, error) {
	if !mealType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMealType, mealType)
	}

	item, err := newMealItem(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.Get(ctx, date)
	if err != nil {
		return nil, err
	}

	items := l.Meals.Items(mealType)
	*items = append(*items, *item)

	if err := s.save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("date", date).
		Str("meal", string(mealType)).
		Str("item", item.Name).
		Int("calories", item.Calories).
		Msg("meal item added")
	return item, nil
}

// RemoveMeal deletes an item from a meal.
func (s *Service) RemoveMeal(ctx context.Context, date string, mealType MealType, id string) error {
	if !mealType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMealType, mealType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.Get(ctx, date)
	if err != nil {
		return err
	}

	items := l.Meals.Items(mealType)
	for i, item := range *items {
		if item.ID == id {
			*items = append((*items)[:i], (*items)[i+1:]...)
			return s.save(ctx, l)
		}
	}
	return ErrMealNotFound
}

// List returns every stored log, oldest first.
func (s *Service) List(ctx context.Context) ([]*Log, error) {
	entries, err := s.kv.List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}

	logs := make([]*Log, 0, len(entries))
	for _, e := range entries {
		l, err := decodeLog(e.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", strings.TrimPrefix(e.Key, keyPrefix), err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// Clear deletes every stored log and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.kv.List(ctx, keyPrefix)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := s.kv.Delete(ctx, e.Key); err != nil {
			return 0, err
		}
	}
	s.logger.Info().Int("count", len(entries)).Msg("daily logs cleared")
	return len(entries), nil
}

func newMealItem(req *models.MealItemRequest) (*MealItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMealItem)
	}
	if req.Calories < 0 || req.Protein < 0 || req.Carbs < 0 || req.Fats < 0 || req.Quantity < 0 {
		return nil, fmt.Errorf("%w: values must not be negative", ErrInvalidMealItem)
	}

	item := &MealItem{
		ID:       "meal_" + uuid.New().String(),
		Name:     name,
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fats:     req.Fats,
		Quantity: req.Quantity,
		Unit:     strings.TrimSpace(req.Unit),
	}
	if item.Quantity == 0 {
		item.Quantity = DefaultQuantity
	}
	if item.Unit == "" {
		item.Unit = DefaultUnit
	}
	return item, nil
}

func decodeLog(raw []byte) (*Log, error) {
	var l Log
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	normalize(&l)
	return &l, nil
}

// normalize replaces nil meal slices so they encode as [].
func normalize(l *Log) {
	for _, t := range MealTypes() {
		if items := l.Meals.Items(t); *items == nil {
			*items = []MealItem{}
		}
	}
}
