package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/payloads"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
	"github.com/loredrop/campus-backend/pkg/outbox/relay"
)

type noTx struct{}

func (noTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeClaimer struct {
	claimed  map[string]bool
	released []string
	err      error
}

func (f *fakeClaimer) Claim(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed[id] {
		return false, nil
	}
	f.claimed[id] = true
	return true, nil
}

func (f *fakeClaimer) Release(_ context.Context, id string) error {
	delete(f.claimed, id)
	f.released = append(f.released, id)
	return nil
}

type handlerFunc func(ctx context.Context, tx *gorm.DB, resolved *registry.ResolvedEvent) error

func (h handlerFunc) Handle(ctx context.Context, tx *gorm.DB, resolved *registry.ResolvedEvent) error {
	return h(ctx, tx, resolved)
}

func newTestConsumer(h eventHandler, claims *fakeClaimer) *Consumer {
	return &Consumer{
		db:          noTx{},
		registry:    registry.NewEventRegistry("domain-events"),
		handler:     h,
		idempotency: claims,
		logg:        logger.New(logger.Options{ServiceName: "consumer-test", Output: io.Discard}),
	}
}

func publishedMessage(t *testing.T) inboundMessage {
	t.Helper()
	eventID := uuid.New()
	data, err := json.Marshal(payloads.EventPublishedEvent{EventID: eventID, AuthorID: uuid.New(), Title: "Hackathon"})
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return inboundMessage{
		ID:   "m-1",
		Data: envelope,
		Attributes: map[string]string{
			relay.AttrEventType:     string(enums.EventEventPublished),
			relay.AttrAggregateType: string(enums.AggregateEvent),
			relay.AttrAggregateID:   eventID.String(),
		},
	}
}

func TestConsumerHandlesOncePerEvent(t *testing.T) {
	calls := 0
	claims := &fakeClaimer{claimed: map[string]bool{}}
	c := newTestConsumer(handlerFunc(func(_ context.Context, _ *gorm.DB, resolved *registry.ResolvedEvent) error {
		calls++
		payload, ok := resolved.Payload.(*payloads.EventPublishedEvent)
		require.True(t, ok)
		assert.Equal(t, "Hackathon", payload.Title)
		return nil
	}), claims)

	msg := publishedMessage(t)
	assert.True(t, c.process(context.Background(), msg).ack)
	assert.True(t, c.process(context.Background(), msg).ack)
	assert.Equal(t, 1, calls)
}

func TestConsumerReleasesClaimOnFailure(t *testing.T) {
	claims := &fakeClaimer{claimed: map[string]bool{}}
	c := newTestConsumer(handlerFunc(func(context.Context, *gorm.DB, *registry.ResolvedEvent) error {
		return errors.New("db down")
	}), claims)

	result := c.process(context.Background(), publishedMessage(t))
	assert.True(t, result.nack)
	assert.Len(t, claims.released, 1)
	assert.Empty(t, claims.claimed)
}

func TestConsumerAcksPermanentFailures(t *testing.T) {
	claims := &fakeClaimer{claimed: map[string]bool{}}
	c := newTestConsumer(handlerFunc(func(context.Context, *gorm.DB, *registry.ResolvedEvent) error {
		return registry.NewNonRetryableError(errors.New("bad payload"))
	}), claims)

	assert.True(t, c.process(context.Background(), publishedMessage(t)).ack)
	assert.Empty(t, claims.released)
}

func TestConsumerAcksMalformedMessages(t *testing.T) {
	claims := &fakeClaimer{claimed: map[string]bool{}}
	c := newTestConsumer(handlerFunc(func(context.Context, *gorm.DB, *registry.ResolvedEvent) error {
		t.Fatal("handler must not run")
		return nil
	}), claims)

	msg := publishedMessage(t)
	msg.Attributes[relay.AttrEventType] = "poll.closed"
	assert.True(t, c.process(context.Background(), msg).ack)

	msg = publishedMessage(t)
	msg.Data = []byte("{")
	assert.True(t, c.process(context.Background(), msg).ack)
}

func TestConsumerNacksWhenIdempotencyStoreFails(t *testing.T) {
	claims := &fakeClaimer{claimed: map[string]bool{}, err: errors.New("redis down")}
	c := newTestConsumer(handlerFunc(func(context.Context, *gorm.DB, *registry.ResolvedEvent) error {
		return nil
	}), claims)
	assert.True(t, c.process(context.Background(), publishedMessage(t)).nack)
}
