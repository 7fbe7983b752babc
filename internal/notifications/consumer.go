package notifications

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
	"github.com/loredrop/campus-backend/pkg/outbox/relay"
)

// ConsumerName scopes the idempotency keys written by the notifications consumer.
const ConsumerName = "notifications-fanout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type claimer interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type eventHandler interface {
	Handle(ctx context.Context, tx *gorm.DB, resolved *registry.ResolvedEvent) error
}

type ConsumerParams struct {
	DB           txRunner
	Registry     resolver
	Handler      eventHandler
	Subscription *pubsub.Subscriber
	Idempotency  claimer
	Logger       *logger.Logger
}

// Consumer receives domain events from Pub/Sub and runs the fan-out for each
// one exactly once per idempotency window.
type Consumer struct {
	db           txRunner
	registry     resolver
	handler      eventHandler
	subscription *pubsub.Subscriber
	idempotency  claimer
	logg         *logger.Logger
}

func NewConsumer(p ConsumerParams) (*Consumer, error) {
	switch {
	case p.DB == nil:
		return nil, fmt.Errorf("db client required")
	case p.Registry == nil:
		return nil, fmt.Errorf("event registry required")
	case p.Handler == nil:
		return nil, fmt.Errorf("event handler required")
	case p.Subscription == nil:
		return nil, fmt.Errorf("domain subscription required")
	case p.Idempotency == nil:
		return nil, fmt.Errorf("idempotency manager required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		db:           p.DB,
		registry:     p.Registry,
		handler:      p.Handler,
		subscription: p.Subscription,
		idempotency:  p.Idempotency,
		logg:         p.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, inboundMessage{ID: msg.ID, Data: msg.Data, Attributes: msg.Attributes})
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type inboundMessage struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg inboundMessage) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes[relay.AttrEventType],
	}
	logCtx := c.logg.WithFields(ctx, fields)

	row, err := outboxRowFromMessage(msg)
	if err != nil {
		c.logg.Error(logCtx, "malformed domain message", err)
		return processResult{ack: true}
	}
	resolved, err := c.registry.Resolve(row)
	if err != nil {
		c.logg.Error(logCtx, "failed to resolve domain message", err)
		return processResult{ack: true}
	}

	eventID := resolved.Envelope.EventID
	logCtx = c.logg.WithField(logCtx, "event_id", eventID)
	claimed, err := c.idempotency.Claim(ctx, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	err = c.db.WithTx(ctx, func(tx *gorm.DB) error {
		return c.handler.Handle(logCtx, tx, resolved)
	})
	if err == nil {
		return processResult{ack: true}
	}

	if registry.IsNonRetryable(err) {
		c.logg.Error(logCtx, "notification handling failed permanently", err)
		return processResult{ack: true}
	}
	c.logg.Error(logCtx, "notification handling failed", err)
	if releaseErr := c.idempotency.Release(ctx, eventID); releaseErr != nil {
		c.logg.Error(logCtx, "failed to release idempotency claim", releaseErr)
	}
	return processResult{nack: true}
}

func outboxRowFromMessage(msg inboundMessage) (models.OutboxEvent, error) {
	eventType, err := enums.ParseOutboxEventType(msg.Attributes[relay.AttrEventType])
	if err != nil {
		return models.OutboxEvent{}, err
	}
	aggregateID, err := uuid.Parse(msg.Attributes[relay.AttrAggregateID])
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("invalid aggregate id: %w", err)
	}
	row := models.OutboxEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregateType(msg.Attributes[relay.AttrAggregateType]),
		AggregateID:   aggregateID,
		Payload:       string(msg.Data),
	}
	if ts, err := time.Parse(time.RFC3339Nano, msg.Attributes[relay.AttrCreatedAt]); err == nil {
		row.CreatedAt = ts
	}
	return row, nil
}
