package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type topicSource interface {
	Ping(context.Context) error
	Publisher(topic string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqWriter interface {
	RecordTx(tx *gorm.DB, entry models.OutboxDLQ) (bool, error)
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// sendFunc delivers one message to a topic and waits for the server id.
type sendFunc func(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)

type PublisherParams struct {
	Config   config.OutboxConfig
	Logger   *logger.Logger
	Metrics  *metrics.PublisherMetrics
	DB       txRunner
	Topics   topicSource
	Outbox   outboxRepository
	DLQ      dlqWriter
	Registry eventResolver
	// Send overrides delivery; tests use it to script broker replies.
	Send sendFunc
}

// Publisher drains outbox rows to Pub/Sub. A row is marked published,
// retried on a later batch, or moved to the DLQ once it cannot succeed.
type Publisher struct {
	logg        *logger.Logger
	metrics     *metrics.PublisherMetrics
	db          txRunner
	topics      topicSource
	outbox      outboxRepository
	dlq         dlqWriter
	registry    eventResolver
	send        sendFunc
	publishers  map[string]*gcppubsub.Publisher
	batchSize   int
	maxAttempts int
	interval    time.Duration
	now         func() time.Time
}

type outcome string

const (
	outcomePublished outcome = "published"
	outcomeRetry     outcome = "retry"
	outcomeTerminal  outcome = "terminal"
)

func NewPublisher(params PublisherParams) (*Publisher, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Topics == nil:
		return nil, errors.New("pubsub client is required")
	case params.Outbox == nil:
		return nil, errors.New("outbox repository is required")
	case params.DLQ == nil:
		return nil, errors.New("dlq repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	p := &Publisher{
		logg:        params.Logger,
		metrics:     params.Metrics,
		db:          params.DB,
		topics:      params.Topics,
		outbox:      params.Outbox,
		dlq:         params.DLQ,
		registry:    params.Registry,
		send:        params.Send,
		publishers:  make(map[string]*gcppubsub.Publisher),
		batchSize:   params.Config.BatchSize,
		maxAttempts: params.Config.MaxAttempts,
		interval:    time.Duration(params.Config.PollIntervalMS) * time.Millisecond,
		now:         time.Now,
	}
	if p.batchSize <= 0 {
		p.batchSize = defaultBatchSize
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = defaultMaxAttempts
	}
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	if p.send == nil {
		p.send = p.sendToTopic
	}
	return p, nil
}

// Run polls until ctx is cancelled. Batch errors back off exponentially
// with jitter; a full batch polls again immediately.
func (p *Publisher) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": p.db.Ping, "pubsub": p.topics.Ping} {
		if err := ping(ctx); err != nil {
			p.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	backoff := p.interval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.drainOnce(ctx)
		wait := p.interval
		switch {
		case err != nil:
			p.logg.Error(ctx, "outbox batch failed", err)
			backoff = nextBackoff(backoff, p.interval, maxBackoff)
			wait = backoff
		case n >= p.batchSize:
			backoff = p.interval
			continue
		default:
			backoff = p.interval
		}

		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// drainOnce handles one batch inside a single transaction and returns the
// number of rows it looked at.
func (p *Publisher) drainOnce(ctx context.Context) (int, error) {
	start := p.now()
	defer func() { p.metrics.ObserveBatch(p.now().Sub(start)) }()

	var count int
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := p.outbox.FetchUnpublishedForPublish(tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox rows: %w", err)
		}
		count = len(events)
		for _, event := range events {
			if err := p.handle(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return count, err
}

// handle only returns errors from bookkeeping writes; delivery failures are
// recorded on the row itself.
func (p *Publisher) handle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    string(event.EventType),
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	})

	resolved, err := p.registry.Resolve(event)
	if err != nil {
		return p.bury(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	logCtx = p.logg.WithField(logCtx, "topic", resolved.Descriptor.Topic)

	switch result, err := p.deliver(ctx, event, resolved); result {
	case outcomePublished:
		if err := p.outbox.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		p.metrics.IncPublished(string(event.EventType))
		p.logg.Info(logCtx, "outbox event published")
		return nil
	case outcomeTerminal:
		return p.bury(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	default:
		if event.AttemptCount+1 >= p.maxAttempts {
			return p.bury(logCtx, tx, event, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", err))
		}
		p.metrics.IncFailed(string(event.EventType), "retry")
		p.logg.Warn(p.logg.WithField(logCtx, "error", err.Error()), "outbox publish failed; will retry")
		if markErr := p.outbox.MarkFailedTx(tx, event.ID, err); markErr != nil {
			return fmt.Errorf("mark failed %s: %w", event.ID, markErr)
		}
		return nil
	}
}

func (p *Publisher) deliver(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) (outcome, error) {
	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	if _, err := p.send(sendCtx, resolved.Descriptor.Topic, msg); err != nil {
		if isPermanent(err) {
			return outcomeTerminal, err
		}
		return outcomeRetry, err
	}
	return outcomePublished, nil
}

// sendToTopic reuses one publisher per topic; only the Run goroutine calls it.
func (p *Publisher) sendToTopic(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.topics.Publisher(topic)
		if pub == nil {
			return "", registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
		}
		p.publishers[topic] = pub
	}
	return pub.Publish(ctx, msg).Get(ctx)
}

// Stop flushes and stops every cached topic publisher.
func (p *Publisher) Stop() {
	for topic, pub := range p.publishers {
		pub.Stop()
		delete(p.publishers, topic)
	}
}

// bury copies the row into the DLQ and marks it terminal.
func (p *Publisher) bury(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	p.metrics.IncFailed(string(event.EventType), string(reason))
	p.logg.Warn(p.logg.WithFields(ctx, map[string]any{
		"error_reason": string(reason),
		"error":        cause.Error(),
	}), "outbox event moved to dlq")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      p.now().UTC(),
	}
	created, err := p.dlq.RecordTx(tx, entry)
	if err != nil {
		return fmt.Errorf("record dlq %s: %w", event.ID, err)
	}
	if !created {
		p.logg.Info(ctx, "existing dlq entry refreshed")
	}
	if err := p.outbox.MarkTerminalTx(tx, event.ID, cause, p.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

// isPermanent reports errors a retry cannot fix: registry rejections and
// broker statuses describing a bad request or missing topic.
func isPermanent(err error) bool {
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return true
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied, codes.FailedPrecondition:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, max)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
