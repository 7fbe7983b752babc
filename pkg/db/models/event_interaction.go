package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// EventInteraction records that a principal upvoted or calendar-saved an event.
// Removal is a hard delete.
type EventInteraction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID             `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_event_interactions_unique"`
	PrincipalID uuid.UUID             `gorm:"column:principal_id;type:uuid;not null;uniqueIndex:idx_event_interactions_unique"`
	Kind        enums.InteractionKind `gorm:"column:kind;type:text;not null;uniqueIndex:idx_event_interactions_unique"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (i *EventInteraction) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
