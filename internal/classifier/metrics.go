package classifier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/levelup/levelup/internal/classifier"

// Metrics holds instruments for classifier provider calls.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	confidence      metric.Float64Histogram
}

// NewMetrics creates classifier instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"classifier.request.duration",
		metric.WithDescription("Duration of image classifier requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"classifier.request.total",
		metric.WithDescription("Total number of image classifier requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	confidence, err := meter.Float64Histogram(
		"classifier.detection.confidence",
		metric.WithDescription("Confidence of the top prediction"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		confidence:      confidence,
	}, nil
}

// RecordRequest records one provider call.
func (m *Metrics) RecordRequest(ctx context.Context, provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("provider.name", provider)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	// Recorded even when the request context was cancelled.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConfidence records the confidence of the winning prediction.
func (m *Metrics) RecordConfidence(ctx context.Context, provider string, confidence float64) {
	if m == nil {
		return
	}
	m.confidence.Record(context.WithoutCancel(ctx), confidence,
		metric.WithAttributes(attribute.String("provider.name", provider)))
}
