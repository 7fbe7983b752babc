package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
)

// Repository exposes event persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListPublished(ctx context.Context, organizationID *uuid.UUID, offset, limit int) ([]models.Event, int64, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit int) ([]models.Event, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.Event, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Organization", "Author").Create(event).Error
}

func (r *repositoryImpl) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Organization").Preload("Author")
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.withRelations(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repositoryImpl) ListPublished(ctx context.Context, organizationID *uuid.UUID, offset, limit int) ([]models.Event, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_published = ?", true)
		if organizationID != nil {
			db = db.Where("organization_id = ?", *organizationID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Event{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Event
	err := r.withRelations(ctx).
		Scopes(scope).
		Order("date_time DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit int) ([]models.Event, error) {
	var rows []models.Event
	err := r.withRelations(ctx).
		Where("organization_id = ?", organizationID).
		Order("date_time DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.Event, error) {
	var rows []models.Event
	err := r.withRelations(ctx).
		Where("is_published = ? AND date_time >= ?", true, from).
		Order("date_time ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
