package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
)

const defaultPublishTimeout = 15 * time.Second

// Message attribute names shared with subscribers.
const (
	AttrEventID       = "event_id"
	AttrEventType     = "event_type"
	AttrAggregateType = "aggregate_type"
	AttrAggregateID   = "aggregate_id"
	AttrCreatedAt     = "created_at"
)

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// TopicFactory returns a publisher handle for a topic id, or nil when unknown.
type TopicFactory func(topic string) *gcppubsub.Publisher

// PubSubPublisher forwards outbox rows to Pub/Sub topics. It ignores the tx.
type PubSubPublisher struct {
	factory func(topic string) topicPublisher
	timeout time.Duration
}

func NewPubSubPublisher(factory TopicFactory) *PubSubPublisher {
	return &PubSubPublisher{
		factory: func(topic string) topicPublisher {
			p := factory(topic)
			if p == nil {
				return nil
			}
			return &gcpPublisher{Publisher: p}
		},
		timeout: defaultPublishTimeout,
	}
}

func (p *PubSubPublisher) Publish(ctx context.Context, _ *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	if topic == "" {
		return registry.NewNonRetryableError(fmt.Errorf("no topic configured for %s", event.EventType))
	}
	pub := p.factory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: []byte(event.Payload),
		Attributes: map[string]string{
			AttrEventID:       resolved.Envelope.EventID,
			AttrEventType:     string(event.EventType),
			AttrAggregateType: string(event.AggregateType),
			AttrAggregateID:   event.AggregateID.String(),
			AttrCreatedAt:     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
