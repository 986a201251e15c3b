package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/nutrition"
	"github.com/levelup/levelup/internal/provider/resilience"
)

// ServiceConfig holds configuration for the classifier service.
type ServiceConfig struct {
	// Providers in order of preference. The first one is used when the
	// classifier_provider flag names a provider that is not configured.
	Providers []Provider

	// FeatureFlags is optional. Without it analysis is always enabled.
	FeatureFlags *featureflags.Service

	// Registry receives provider health. Optional.
	Registry *resilience.Registry

	// Metrics is optional.
	Metrics *Metrics

	Logger zerolog.Logger
}

// Service analyses food photos.
type Service struct {
	providers    []Provider
	byName       map[string]Provider
	featureFlags *featureflags.Service
	registry     *resilience.Registry
	metrics      *Metrics
	tracer       trace.Tracer
	logger       zerolog.Logger
}

// NewService creates a classifier service and registers provider breakers
// with the registry.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		providers:    cfg.Providers,
		byName:       make(map[string]Provider, len(cfg.Providers)),
		featureFlags: cfg.FeatureFlags,
		registry:     cfg.Registry,
		metrics:      cfg.Metrics,
		tracer:       otel.Tracer(instrumentationName),
		logger:       cfg.Logger,
	}
	for _, p := range cfg.Providers {
		s.byName[p.Name()] = p
		if s.registry != nil {
			if b, ok := p.(Breakered); ok {
				s.registry.Register(p.Name(), b.Breaker())
			}
		}
	}
	return s
}

// Configured reports whether at least one provider is available.
func (s *Service) Configured() bool {
	return len(s.providers) > 0
}

// ProviderNames returns the configured provider names in preference order.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Analyze classifies an image and resolves the most confident label to a
// nutrition estimate.
func (s *Service) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	if s.featureFlags.IsImageAnalysisDisabled(ctx) {
		return nil, ErrAnalysisDisabled
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	provider, err := s.pick(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "classifier.Analyze",
		trace.WithAttributes(
			attribute.String("provider.name", provider.Name()),
			attribute.Int("image.bytes", len(image)),
		))
	defer span.End()

	start := time.Now()
	predictions, err := provider.Classify(ctx, image)
	s.metrics.RecordRequest(ctx, provider.Name(), time.Since(start), err)
	if err != nil {
		s.recordFailure(provider.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return nil, fmt.Errorf("%s: %w", provider.Name(), err)
	}
	s.recordSuccess(provider.Name())

	if len(predictions) == 0 {
		return nil, ErrNoFoodDetected
	}
	sortPredictions(predictions)
	top := predictions[0]
	s.metrics.RecordConfidence(ctx, provider.Name(), top.Confidence)

	food := nutrition.ResolveDetection(nutrition.Detection{
		Label:      top.Name,
		Confidence: top.Confidence,
		Source:     provider.Source(),
	})

	s.logger.Debug().
		Str("provider", provider.Name()).
		Str("label", top.Name).
		Float64("confidence", top.Confidence).
		Str("matched", food.MatchedKeyword).
		Msg("image analysed")

	return &Analysis{
		Food:        food,
		Predictions: predictions,
		Provider:    provider.Name(),
	}, nil
}

// CheckProviders probes every provider that supports it and records the
// outcome in the registry. It returns the number of failed probes.
func (s *Service) CheckProviders(ctx context.Context) int {
	failed := 0
	for _, p := range s.providers {
		checker, ok := p.(Checker)
		if !ok {
			continue
		}
		if err := checker.Check(ctx); err != nil {
			failed++
			s.recordFailure(p.Name(), err)
			s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("classifier health check failed")
			continue
		}
		s.recordSuccess(p.Name())
	}
	return failed
}

func (s *Service) pick(ctx context.Context) (Provider, error) {
	if len(s.providers) == 0 {
		return nil, ErrProviderNotConfigured
	}
	if name := s.featureFlags.ClassifierProvider(ctx); name != "" {
		if p, ok := s.byName[name]; ok {
			return p, nil
		}
		s.logger.Debug().Str("flag", name).Msg("preferred classifier not configured, using fallback")
	}
	return s.providers[0], nil
}

func (s *Service) recordSuccess(name string) {
	if s.registry != nil {
		s.registry.RecordSuccess(name)
	}
}

func (s *Service) recordFailure(name string, err error) {
	if s.registry != nil {
		s.registry.RecordFailure(name, err)
	}
}
