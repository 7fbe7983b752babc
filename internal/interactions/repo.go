package interactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

// Repository persists interaction records, comments and event counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EventExists(ctx context.Context, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error)
	// Insert reports false when the record already exists.
	Insert(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error)
	AdjustCounter(ctx context.Context, eventID uuid.UUID, column string, delta int) error
	Exists(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error)
	ActiveKinds(ctx context.Context, principalID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]map[enums.InteractionKind]bool, error)
	CountLive(ctx context.Context, eventID uuid.UUID, kind enums.InteractionKind) (int64, error)
	ListSaved(ctx context.Context, principalID uuid.UUID) ([]SavedRecord, error)
	CreateComment(ctx context.Context, comment *models.EventComment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.EventComment, error)
	ListComments(ctx context.Context, eventID uuid.UUID) ([]models.EventComment, error)
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

func (r *repositoryImpl) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) Delete(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND principal_id = ? AND kind = ?", eventID, principalID, kind).
		Delete(&models.EventInteraction{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Insert(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error) {
	rec := &models.EventInteraction{EventID: eventID, PrincipalID: principalID, Kind: kind}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) AdjustCounter(ctx context.Context, eventID uuid.UUID, column string, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func (r *repositoryImpl) Exists(ctx context.Context, eventID, principalID uuid.UUID, kind enums.InteractionKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EventInteraction{}).
		Where("event_id = ? AND principal_id = ? AND kind = ?", eventID, principalID, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) ActiveKinds(ctx context.Context, principalID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]map[enums.InteractionKind]bool, error) {
	out := make(map[uuid.UUID]map[enums.InteractionKind]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	var rows []models.EventInteraction
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND event_id IN ?", principalID, eventIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.EventID] == nil {
			out[row.EventID] = map[enums.InteractionKind]bool{}
		}
		out[row.EventID][row.Kind] = true
	}
	return out, nil
}

func (r *repositoryImpl) CountLive(ctx context.Context, eventID uuid.UUID, kind enums.InteractionKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EventInteraction{}).
		Where("event_id = ? AND kind = ?", eventID, kind).
		Count(&count).Error
	return count, err
}

// SavedRecord is a calendar-save record with its event loaded.
type SavedRecord struct {
	models.EventInteraction
	Event models.Event `gorm:"foreignKey:EventID;references:ID"`
}

func (SavedRecord) TableName() string { return "event_interactions" }

func (r *repositoryImpl) ListSaved(ctx context.Context, principalID uuid.UUID) ([]SavedRecord, error) {
	var rows []SavedRecord
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Organization").
		Where("principal_id = ? AND kind = ?", principalID, enums.InteractionCalendarSave).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateComment(ctx context.Context, comment *models.EventComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *repositoryImpl) GetComment(ctx context.Context, id uuid.UUID) (*models.EventComment, error) {
	var comment models.EventComment
	if err := r.db.WithContext(ctx).Preload("Principal").Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *repositoryImpl) ListComments(ctx context.Context, eventID uuid.UUID) ([]models.EventComment, error) {
	var rows []models.EventComment
	err := r.db.WithContext(ctx).
		Preload("Principal").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
