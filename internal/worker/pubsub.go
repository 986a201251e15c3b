package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Lease limits for the subscriber.
const (
	maxOutstandingMessages = 4
	maxLeaseExtension      = 5 * time.Minute
)

// JobMessage is the body of a job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// Outcome is what to do with a message after handling it.
type Outcome int

// Outcomes.
const (
	Ack Outcome = iota
	Nack
)

func (o Outcome) String() string {
	if o == Ack {
		return "ack"
	}
	return "nack"
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           *Runner
	Logger           zerolog.Logger
}

// PubSubHandler feeds Pub/Sub messages to a Runner.
type PubSubHandler struct {
	client     *pubsub.Client
	subscriber *pubsub.Subscriber
	cfg        PubSubConfig
	tracer     trace.Tracer
}

// NewPubSubHandler connects to Pub/Sub and prepares the subscriber.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstandingMessages
	subscriber.ReceiveSettings.MaxExtension = maxLeaseExtension

	return &PubSubHandler{
		client:     client,
		subscriber: subscriber,
		cfg:        cfg,
		tracer:     otel.Tracer("github.com/levelup/levelup/internal/worker"),
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.cfg.Logger.Info().Str("subscription", h.cfg.SubscriptionName).Msg("receiving job messages")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		ctx, span := h.tracer.Start(ctx, "worker.message",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.system", "gcp_pubsub"),
				attribute.String("messaging.message.id", msg.ID),
				attribute.String("messaging.source.name", h.cfg.SubscriptionName),
			),
		)
		defer span.End()

		logger := h.cfg.Logger.With().
			Str("message_id", msg.ID).
			Time("published_at", msg.PublishTime).
			Logger()

		outcome := HandleMessage(logger.WithContext(ctx), h.cfg.Runner, msg.Data, logger)
		span.SetAttributes(attribute.String("worker.outcome", outcome.String()))
		if outcome == Nack {
			span.SetStatus(codes.Error, "job not completed")
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// HandleMessage decodes a job message and runs it. Malformed messages and
// failed jobs are nacked so they are redelivered. Unknown job types are
// acked so a bad publisher cannot loop a message forever.
func HandleMessage(ctx context.Context, runner *Runner, data []byte, logger zerolog.Logger) Outcome {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Int("bytes", len(data)).Msg("dropping malformed job message")
		return Nack
	}

	logger = logger.With().Str("job_type", msg.JobType).Logger()
	started := time.Now()

	switch err := runner.Run(ctx, msg.JobType); {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Msg("acking message with unknown job type")
		return Ack
	case err != nil:
		logger.Error().Err(err).Dur("duration", time.Since(started)).Msg("job failed, message will be redelivered")
		return Nack
	}

	logger.Info().Dur("duration", time.Since(started)).Msg("job completed")
	return Ack
}
