package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/dbtest"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

type fakeRepository struct {
	Repository
	listFn     func(ctx context.Context, recipientID uuid.UUID, limit int) ([]notificationRow, error)
	markReadFn func(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (bool, error)
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository {
	return f
}

func (f *fakeRepository) List(ctx context.Context, recipientID uuid.UUID, limit int) ([]notificationRow, error) {
	if f.listFn != nil {
		return f.listFn(ctx, recipientID, limit)
	}
	return nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (bool, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, recipientID, notificationID, now)
	}
	return false, nil
}

func TestService_ListCapsLimit(t *testing.T) {
	var gotLimit int
	repo := &fakeRepository{
		listFn: func(_ context.Context, _ uuid.UUID, limit int) ([]notificationRow, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	for _, requested := range []int{0, -1, 500} {
		_, err := svc.List(context.Background(), uuid.New(), requested)
		require.NoError(t, err)
		assert.Equal(t, MaxListLimit, gotLimit)
	}
	_, err = svc.List(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, gotLimit)
}

func TestService_MarkReadErrors(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
			return false, errors.New("db down")
		},
	}
	svc, _ := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestService_ReadFlow(t *testing.T) {
	client := dbtest.New(t)
	conn := client.DB()
	ctx := context.Background()

	owner := models.Principal{Email: "owner@iitk.ac.in", DisplayName: "owner"}
	other := models.Principal{Email: "other@iitk.ac.in", DisplayName: "other"}
	require.NoError(t, conn.Create(&owner).Error)
	require.NoError(t, conn.Create(&other).Error)

	repo := NewRepository(conn)
	mine := models.Notification{RecipientID: owner.ID, Type: enums.NotificationTypeNewOrgEvent, Message: "one", FromPrincipalID: &other.ID}
	second := models.Notification{RecipientID: owner.ID, Type: enums.NotificationTypeNewOrgEvent, Message: "two"}
	theirs := models.Notification{RecipientID: other.ID, Type: enums.NotificationTypeNewOrgEvent, Message: "three"}
	for _, n := range []*models.Notification{&mine, &second, &theirs} {
		require.NoError(t, conn.Create(n).Error)
	}

	svc, err := NewService(repo)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	list, err := svc.List(ctx, owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		if n.ID == mine.ID {
			require.NotNil(t, n.From)
			assert.Equal(t, "other", n.From.DisplayName)
		}
	}

	require.NoError(t, svc.MarkRead(ctx, owner.ID, mine.ID))
	require.NoError(t, svc.MarkRead(ctx, owner.ID, mine.ID), "already read is a no-op")

	err = svc.MarkRead(ctx, owner.ID, theirs.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.MarkRead(ctx, owner.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", theirs.ID).Error)
	assert.False(t, stored.Read)

	updated, err := svc.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	count, err = svc.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
