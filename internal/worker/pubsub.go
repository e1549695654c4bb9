package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// ExportJobMessage is the Pub/Sub payload for a queued export.
type ExportJobMessage struct {
	RequestID string `json:"request_id"`
}

// PubSubConfig holds configuration for the Pub/Sub subscriber.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *ExportJob
	Logger           zerolog.Logger
}

// PubSubHandler consumes export job messages and dispatches them to the
// job runner.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	job              *ExportJob
	logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	// Exports are memory-heavy; keep the fan-out narrow.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		job:              cfg.Job,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing messages. Blocks until ctx is canceled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting export job subscriber")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()

	logger := h.logger.With().Str("message_id", msg.ID).Logger()

	var job ExportJobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse export job message")
		// Malformed messages would fail forever; drop them.
		msg.Ack()
		return
	}

	// Process settles export failures itself (marks the request failed and
	// returns nil); an error here means a repository problem, which a
	// redelivery can resolve.
	if err := h.job.Process(ctx, job.RequestID); err != nil {
		logger.Error().Err(err).Str("request_id", job.RequestID).Msg("export job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("request_id", job.RequestID).
		Dur("duration", time.Since(start)).
		Msg("export job handled")
	msg.Ack()
}

// PubSubPublisher enqueues export jobs onto the worker topic. It implements
// exportreq.Publisher.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
}

// NewPubSubPublisher creates a publisher for the given topic.
func NewPubSubPublisher(ctx context.Context, projectID, topicName string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(topicName),
		topicName: topicName,
	}, nil
}

// PublishExportJob implements exportreq.Publisher.
func (p *PubSubPublisher) PublishExportJob(ctx context.Context, requestID string) error {
	data, err := json.Marshal(ExportJobMessage{RequestID: requestID})
	if err != nil {
		return fmt.Errorf("encoding export job: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topicName, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
