package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/provider/resilience"
	"github.com/levelup/levelup/internal/store"
)

type fakeProvider struct {
	name        string
	predictions []classifier.Prediction
	err         error
	checkErr    error
	calls       int
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Source() string { return f.name + " model" }

func (f *fakeProvider) Classify(_ context.Context, _ []byte) ([]classifier.Prediction, error) {
	f.calls++
	return f.predictions, f.err
}

func (f *fakeProvider) Check(_ context.Context) error { return f.checkErr }

func (f *fakeProvider) Breaker() resilience.Breaker {
	return resilience.NewCircuitBreaker[struct{}](resilience.DefaultCircuitBreakerConfig(f.name))
}

func newFlags(t *testing.T) *featureflags.Service {
	t.Helper()
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewKVRepository(store.NewMemoryKV()),
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
	})
}

func TestService_Analyze(t *testing.T) {
	provider := &fakeProvider{
		name: "clarifai",
		predictions: []classifier.Prediction{
			{Name: "cheese", Confidence: 0.62},
			{Name: "pizza", Confidence: 0.974},
		},
	}
	registry := resilience.NewRegistry()
	svc := classifier.NewService(classifier.ServiceConfig{
		Providers: []classifier.Provider{provider},
		Registry:  registry,
		Logger:    zerolog.Nop(),
	})

	analysis, err := svc.Analyze(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "clarifai", analysis.Provider)
	assert.Equal(t, "pizza", analysis.Predictions[0].Name)
	assert.Equal(t, "pizza", analysis.Food.MatchedKeyword)
	assert.Equal(t, 266, analysis.Food.Calories)
	assert.Equal(t, "AI detected with 97.4% confidence (clarifai model)", analysis.Food.Provenance)

	health := registry.GetHealth("clarifai")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
}

func TestService_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name      string
		providers []classifier.Provider
		disable   bool
		image     []byte
		wantErr   error
	}{
		{
			name:    "no providers",
			image:   []byte("img"),
			wantErr: classifier.ErrProviderNotConfigured,
		},
		{
			name:      "analysis disabled by flag",
			providers: []classifier.Provider{&fakeProvider{name: "clarifai"}},
			disable:   true,
			image:     []byte("img"),
			wantErr:   classifier.ErrAnalysisDisabled,
		},
		{
			name:      "empty image",
			providers: []classifier.Provider{&fakeProvider{name: "clarifai"}},
			wantErr:   classifier.ErrEmptyImage,
		},
		{
			name:      "nothing detected",
			providers: []classifier.Provider{&fakeProvider{name: "clarifai"}},
			image:     []byte("img"),
			wantErr:   classifier.ErrNoFoodDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFlags(t)
			if tt.disable {
				_, err := flags.SetFlags(context.Background(), map[string]interface{}{
					featureflags.FlagDisableImageAnalysis: true,
				})
				require.NoError(t, err)
			}

			svc := classifier.NewService(classifier.ServiceConfig{
				Providers:    tt.providers,
				FeatureFlags: flags,
				Logger:       zerolog.Nop(),
			})

			_, err := svc.Analyze(context.Background(), tt.image)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Analyze_ProviderFailureIsRecorded(t *testing.T) {
	provider := &fakeProvider{name: "clarifai", err: errors.New("upstream 503")}
	registry := resilience.NewRegistry()
	svc := classifier.NewService(classifier.ServiceConfig{
		Providers: []classifier.Provider{provider},
		Registry:  registry,
		Logger:    zerolog.Nop(),
	})

	_, err := svc.Analyze(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clarifai")

	health := registry.GetHealth("clarifai")
	require.NotNil(t, health)
	assert.Equal(t, "upstream 503", health.LastError)
}

func TestService_Analyze_FlagSelectsProvider(t *testing.T) {
	clarifai := &fakeProvider{name: "clarifai", predictions: []classifier.Prediction{{Name: "apple", Confidence: 0.9}}}
	rekognition := &fakeProvider{name: "rekognition", predictions: []classifier.Prediction{{Name: "Banana", Confidence: 0.8}}}

	flags := newFlags(t)
	svc := classifier.NewService(classifier.ServiceConfig{
		Providers:    []classifier.Provider{clarifai, rekognition},
		FeatureFlags: flags,
		Logger:       zerolog.Nop(),
	})
	ctx := context.Background()

	analysis, err := svc.Analyze(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "clarifai", analysis.Provider)

	_, err = flags.SetFlags(ctx, map[string]interface{}{featureflags.FlagClassifierProvider: "rekognition"})
	require.NoError(t, err)

	analysis, err = svc.Analyze(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "rekognition", analysis.Provider)
	assert.Equal(t, "banana", analysis.Food.MatchedKeyword)

	// An unknown provider name falls back to the first configured one.
	_, err = flags.SetFlags(ctx, map[string]interface{}{featureflags.FlagClassifierProvider: "vision"})
	require.NoError(t, err)

	analysis, err = svc.Analyze(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "clarifai", analysis.Provider)
	assert.Equal(t, 2, clarifai.calls)
}

func TestService_CheckProviders(t *testing.T) {
	healthy := &fakeProvider{name: "clarifai"}
	broken := &fakeProvider{name: "rekognition", checkErr: errors.New("denied")}
	registry := resilience.NewRegistry()

	svc := classifier.NewService(classifier.ServiceConfig{
		Providers: []classifier.Provider{healthy, broken},
		Registry:  registry,
		Logger:    zerolog.Nop(),
	})

	assert.Equal(t, 1, svc.CheckProviders(context.Background()))
	assert.NotNil(t, registry.GetHealth("clarifai").LastSuccessAt)
	assert.Equal(t, "denied", registry.GetHealth("rekognition").LastError)
	assert.Equal(t, []string{"clarifai", "rekognition"}, svc.ProviderNames())
	assert.True(t, svc.Configured())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *classifier.Metrics
	m.RecordRequest(context.Background(), "clarifai", time.Second, nil)
	m.RecordConfidence(context.Background(), "clarifai", 0.5)

	m, err := classifier.NewMetrics()
	require.NoError(t, err)
	m.RecordRequest(context.Background(), "clarifai", time.Second, errors.New("x"))
}
