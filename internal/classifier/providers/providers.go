// Package providers builds the image classifiers enabled by configuration.
package providers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/classifier/clarifai"
	"github.com/levelup/levelup/internal/classifier/rekognition"
	"github.com/levelup/levelup/internal/config"
	"github.com/levelup/levelup/internal/provider/resilience"
)

// FromConfig returns the configured classifiers in preference order:
// Clarifai first, then Rekognition. A provider that fails to initialise is
// logged and skipped.
func FromConfig(ctx context.Context, cfg config.Config, log zerolog.Logger) []classifier.Provider {
	var providers []classifier.Provider

	if cfg.ClarifaiConfigured() {
		providers = append(providers, clarifai.NewClient(clarifai.ClientConfig{
			PAT:     cfg.ClarifaiPAT,
			BaseURL: cfg.ClarifaiBaseURL,
			HTTPClient: resilience.NewClient(resilience.ClientConfig{
				Name:       clarifai.ProviderName,
				Timeout:    20 * time.Second,
				MaxRetries: 2,
				Logger:     log,
			}),
			Logger: log,
		}))
	}

	if cfg.RekognitionEnabled {
		client, err := rekognition.New(ctx, rekognition.ClientConfig{
			Region: cfg.AWSRegion,
			Logger: log,
		})
		if err != nil {
			log.Error().Err(err).Msg("rekognition disabled")
		} else {
			providers = append(providers, client)
		}
	}

	return providers
}
