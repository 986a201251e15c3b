// Package classifier turns food photos into nutrition estimates using an
// external image recognition provider.
package classifier

import (
	"context"
	"errors"
	"sort"

	"github.com/levelup/levelup/internal/nutrition"
	"github.com/levelup/levelup/internal/provider/resilience"
)

// Errors returned by Analyze.
var (
	ErrAnalysisDisabled      = errors.New("image analysis is disabled")
	ErrProviderNotConfigured = errors.New("no image classifier is configured")
	ErrNoFoodDetected        = errors.New("no food detected in image")
	ErrEmptyImage            = errors.New("image is empty")
)

// Prediction is a single label returned by a provider.
type Prediction struct {
	Name string `json:"name"`
	// Confidence is in the range 0..1.
	Confidence float64 `json:"confidence"`
}

// Provider classifies an image into food labels.
type Provider interface {
	Name() string
	// Source is the human readable model name shown in provenance text.
	Source() string
	Classify(ctx context.Context, image []byte) ([]Prediction, error)
}

// Checker is implemented by providers that can be probed without an image.
type Checker interface {
	Check(ctx context.Context) error
}

// Breakered is implemented by providers that guard their calls with a
// circuit breaker.
type Breakered interface {
	Breaker() resilience.Breaker
}

// Analysis is the result of classifying a photo.
type Analysis struct {
	Food        nutrition.Estimate `json:"food"`
	Predictions []Prediction       `json:"predictions"`
	Provider    string             `json:"provider"`
}

// sortPredictions orders predictions by confidence, highest first. Ties keep
// the provider's order.
func sortPredictions(p []Prediction) {
	sort.SliceStable(p, func(i, j int) bool { return p[i].Confidence > p[j].Confidence })
}
