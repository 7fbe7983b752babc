package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
)

// Repository persists notifications and resolves fan-out audiences.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, rows []models.Notification, batchSize int) error
	List(ctx context.Context, recipientID uuid.UUID, limit int) ([]notificationRow, error)
	// MarkRead reports false when recipientID owns no such notification.
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	// RecipientBatches streams every principal id except exclude, batchSize at a time.
	RecipientBatches(ctx context.Context, exclude uuid.UUID, batchSize int, fn func(ids []uuid.UUID) error) error
	DescribeRequest(ctx context.Context, requestID uuid.UUID) (requestDescription, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// notificationRow is a notification joined with its sender and event.
type notificationRow struct {
	models.Notification
	FromDisplayName *string
	FromAvatarURL   *string
	EventTitle      *string
}

type requestDescription struct {
	OrganizationName string
	RequesterName    string
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// inbox scopes a query to one recipient's notifications.
func (r *gormRepository) inbox(ctx context.Context, recipientID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("notifications.recipient_id = ?", recipientID)
}

func (r *gormRepository) CreateBatch(ctx context.Context, rows []models.Notification, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

func (r *gormRepository) List(ctx context.Context, recipientID uuid.UUID, limit int) ([]notificationRow, error) {
	var rows []notificationRow
	err := r.inbox(ctx, recipientID).
		Select("notifications.*, principals.display_name AS from_display_name, principals.avatar_url AS from_avatar_url, events.title AS event_title").
		Joins("LEFT JOIN principals ON principals.id = notifications.from_principal_id").
		Joins("LEFT JOIN events ON events.id = notifications.event_id").
		Order("notifications.created_at DESC, notifications.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *gormRepository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (bool, error) {
	var owned int64
	if err := r.inbox(ctx, recipientID).Where("notifications.id = ?", notificationID).Count(&owned).Error; err != nil {
		return false, err
	}
	if owned == 0 {
		return false, nil
	}
	err := r.inbox(ctx, recipientID).
		Where("notifications.id = ? AND notifications.read = ?", notificationID, false).
		UpdateColumns(map[string]any{"read": true, "read_at": now}).Error
	return err == nil, err
}

func (r *gormRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error) {
	res := r.inbox(ctx, recipientID).
		Where("notifications.read = ?", false).
		UpdateColumns(map[string]any{"read": true, "read_at": now})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.inbox(ctx, recipientID).Where("notifications.read = ?", false).Count(&count).Error
	return count, err
}

func (r *gormRepository) RecipientBatches(ctx context.Context, exclude uuid.UUID, batchSize int, fn func(ids []uuid.UUID) error) error {
	var batch []models.Principal
	return r.db.WithContext(ctx).
		Model(&models.Principal{}).
		Select("id").
		Where("id <> ?", exclude).
		FindInBatches(&batch, batchSize, func(*gorm.DB, int) error {
			ids := make([]uuid.UUID, len(batch))
			for i, p := range batch {
				ids[i] = p.ID
			}
			return fn(ids)
		}).Error
}

func (r *gormRepository) DescribeRequest(ctx context.Context, requestID uuid.UUID) (requestDescription, error) {
	var desc requestDescription
	err := r.db.WithContext(ctx).
		Table("organization_requests").
		Select("organizations.name AS organization_name, principals.display_name AS requester_name").
		Joins("JOIN organizations ON organizations.id = organization_requests.organization_id").
		Joins("JOIN principals ON principals.id = organization_requests.principal_id").
		Where("organization_requests.id = ?", requestID).
		Take(&desc).Error
	return desc, err
}
