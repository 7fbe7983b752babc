package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// Notification is an in-app notice addressed to a single principal. Read is monotonic.
type Notification struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID     uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index:idx_notifications_recipient"`
	Type            enums.NotificationType `gorm:"column:type;type:text;not null"`
	EventID         *uuid.UUID             `gorm:"column:event_id;type:uuid"`
	RequestID       *uuid.UUID             `gorm:"column:request_id;type:uuid"`
	FromPrincipalID *uuid.UUID             `gorm:"column:from_principal_id;type:uuid"`
	Message         string                 `gorm:"column:message;type:text;not null"`
	Read            bool                   `gorm:"column:read;not null"`
	ReadAt          *time.Time             `gorm:"column:read_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
