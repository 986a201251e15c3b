// Package rekognition implements AWS Rekognition label detection as an image
// classifier.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/provider/resilience"
)

const (
	// ProviderName identifies this classifier.
	ProviderName = "rekognition"

	source = "AWS Rekognition"

	// DefaultMaxLabels is the number of labels requested per image.
	DefaultMaxLabels = 10

	// DefaultMinConfidence is the Rekognition confidence floor, in percent.
	DefaultMinConfidence = 50
)

// genericLabels are category labels that say nothing about which food is
// in the photo.
var genericLabels = map[string]bool{
	"Food":      true,
	"Meal":      true,
	"Dish":      true,
	"Plate":     true,
	"Cuisine":   true,
	"Tableware": true,
	"Platter":   true,
}

// API is the subset of the Rekognition client used here.
type API interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// ClientConfig holds configuration for the Rekognition classifier.
type ClientConfig struct {
	// API is the Rekognition client. If nil, New loads the default AWS
	// configuration for Region.
	API API

	Region        string
	MaxLabels     int32
	MinConfidence float32

	// CircuitBreaker overrides the breaker settings.
	CircuitBreaker *resilience.CircuitBreakerConfig

	Logger zerolog.Logger
}

// Client classifies images with Rekognition DetectLabels.
type Client struct {
	api           API
	maxLabels     int32
	minConfidence float32
	breaker       *gobreaker.CircuitBreaker[*rekognition.DetectLabelsOutput]
	logger        zerolog.Logger
}

// New creates a Rekognition classifier. Credentials come from the default
// AWS chain (environment, shared config, instance role).
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	api := cfg.API
	if api == nil {
		if cfg.Region == "" {
			return nil, errors.New("rekognition: region is required")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		api = rekognition.NewFromConfig(awsCfg)
	}

	maxLabels := cfg.MaxLabels
	if maxLabels == 0 {
		maxLabels = DefaultMaxLabels
	}
	minConfidence := cfg.MinConfidence
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}

	cbConfig := resilience.DefaultCircuitBreakerConfig(ProviderName)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	return &Client{
		api:           api,
		maxLabels:     maxLabels,
		minConfidence: minConfidence,
		breaker:       resilience.NewCircuitBreaker[*rekognition.DetectLabelsOutput](cbConfig),
		logger:        cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Source returns the model name used in provenance text.
func (c *Client) Source() string {
	return source
}

// Breaker exposes the circuit breaker guarding DetectLabels.
func (c *Client) Breaker() resilience.Breaker {
	return c.breaker
}

// Classify detects labels in the image. Confidence is converted from
// percent to 0..1.
func (c *Client) Classify(ctx context.Context, image []byte) ([]classifier.Prediction, error) {
	out, err := c.breaker.Execute(func() (*rekognition.DetectLabelsOutput, error) {
		return c.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
			Image:         &types.Image{Bytes: image},
			MaxLabels:     aws.Int32(c.maxLabels),
			MinConfidence: aws.Float32(c.minConfidence),
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, resilience.ErrCircuitOpen
		}
		return nil, fmt.Errorf("detecting labels: %w", err)
	}

	predictions := make([]classifier.Prediction, 0, len(out.Labels))
	for _, label := range out.Labels {
		name := aws.ToString(label.Name)
		if name == "" || genericLabels[name] {
			continue
		}
		predictions = append(predictions, classifier.Prediction{
			Name:       name,
			Confidence: float64(aws.ToFloat32(label.Confidence)) / 100,
		})
	}

	c.logger.Debug().Int("labels", len(predictions)).Msg("rekognition labels received")
	return predictions, nil
}
