package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventComment struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID `gorm:"column:event_id;type:uuid;not null;index:idx_event_comments_event"`
	PrincipalID uuid.UUID `gorm:"column:principal_id;type:uuid;not null"`
	Text        string    `gorm:"column:text;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`

	Principal *Principal `gorm:"foreignKey:PrincipalID;references:ID"`
}

func (c *EventComment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
