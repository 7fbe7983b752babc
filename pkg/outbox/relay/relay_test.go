package relay

import (
	"context"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/dbtest"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/payloads"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	client := dbtest.New(t)
	first := emitRequestFiled(t, client)
	second := emitRequestFiled(t, client)

	calls := 0
	pub := PublisherFunc(func(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
		calls++
		if event.AggregateID == first {
			return errors.New("transient")
		}
		return nil
	})
	relay := newTestRelay(t, client, pub, 5)

	processed, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, 2, calls)

	firstRow := loadRow(t, client, first)
	assert.Nil(t, firstRow.PublishedAt)
	assert.Equal(t, 1, firstRow.AttemptCount)
	require.NotNil(t, firstRow.LastError)
	assert.Equal(t, "transient", *firstRow.LastError)

	secondRow := loadRow(t, client, second)
	assert.NotNil(t, secondRow.PublishedAt)
}

func TestPublisherWritesRollBackOnFailure(t *testing.T) {
	client := dbtest.New(t)
	aggregate := emitRequestFiled(t, client)

	pub := PublisherFunc(func(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
		n := models.Notification{RecipientID: uuid.New(), Type: enums.NotificationTypeAccessRequest, Message: "partial"}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		return errors.New("fan-out broke halfway")
	})
	relay := newTestRelay(t, client, pub, 5)

	_, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count, "writes from a failed delivery must not commit")
	assert.Equal(t, 1, loadRow(t, client, aggregate).AttemptCount)
}

func TestProcessBatchParksRowAfterMaxAttempts(t *testing.T) {
	client := dbtest.New(t)
	aggregate := emitRequestFiled(t, client)

	pub := PublisherFunc(func(context.Context, *gorm.DB, models.OutboxEvent, *registry.ResolvedEvent) error {
		return errors.New("still down")
	})
	relay := newTestRelay(t, client, pub, 2)

	for i := 0; i < 2; i++ {
		_, err := relay.ProcessBatch(context.Background())
		require.NoError(t, err)
	}
	row := loadRow(t, client, aggregate)
	assert.Equal(t, 2, row.AttemptCount)

	processed, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed, "parked rows are not fetched again")
}

func TestProcessBatchParksUndecodableRow(t *testing.T) {
	client := dbtest.New(t)
	row := models.OutboxEvent{
		EventType:     enums.EventAccessRequestFiled,
		AggregateType: enums.AggregateAccessRequest,
		AggregateID:   uuid.New(),
		Payload:       "{not json",
	}
	require.NoError(t, client.DB().Create(&row).Error)

	called := false
	pub := PublisherFunc(func(context.Context, *gorm.DB, models.OutboxEvent, *registry.ResolvedEvent) error {
		called = true
		return nil
	})
	relay := newTestRelay(t, client, pub, 4)

	_, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 4, loadRow(t, client, row.AggregateID).AttemptCount)
}

func TestRunStopsOnCancel(t *testing.T) {
	client := dbtest.New(t)
	relay := newTestRelay(t, client, PublisherFunc(func(context.Context, *gorm.DB, models.OutboxEvent, *registry.ResolvedEvent) error {
		return nil
	}), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := relay.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPubSubPublisherRejectsMissingTopic(t *testing.T) {
	pub := NewPubSubPublisher(func(string) *gcppubsub.Publisher { return nil })
	err := pub.Publish(context.Background(), nil, models.OutboxEvent{EventType: enums.EventEventPublished}, &registry.ResolvedEvent{})
	var nonRetry registry.NonRetryableError
	assert.True(t, errors.As(err, &nonRetry))
}

func newTestRelay(t *testing.T, client *db.Client, pub Publisher, maxAttempts int) *Relay {
	t.Helper()
	relay, err := New(Params{
		Config:     config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: maxAttempts},
		Logger:     logger.New(logger.Options{ServiceName: "relay-test", Output: io.Discard}),
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
		Registry:   registry.NewEventRegistry(""),
		Publisher:  pub,
	})
	require.NoError(t, err)
	return relay
}

func emitRequestFiled(t *testing.T, client *db.Client) uuid.UUID {
	t.Helper()
	svc := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	requestID := uuid.New()
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateAccessRequest,
			AggregateID:   requestID,
			Data: payloads.AccessRequestFiledEvent{
				RequestID:      requestID,
				OrganizationID: uuid.New(),
				PrincipalID:    uuid.New(),
			},
		})
	})
	require.NoError(t, err)
	return requestID
}

func loadRow(t *testing.T, client *db.Client, aggregateID uuid.UUID) models.OutboxEvent {
	t.Helper()
	var row models.OutboxEvent
	require.NoError(t, client.DB().Where("aggregate_id = ?", aggregateID).First(&row).Error)
	return row
}
