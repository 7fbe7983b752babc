package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// Event is a published organization event. UpvoteCount and CommentCount are
// denormalized and only ever move by atomic deltas.
type Event struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID   uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index:idx_events_organization"`
	AuthorID         uuid.UUID       `gorm:"column:author_id;type:uuid;not null"`
	Title            string          `gorm:"column:title;type:text;not null"`
	Description      string          `gorm:"column:description;type:text;not null"`
	DateTime         time.Time       `gorm:"column:date_time;not null"`
	EndDateTime      *time.Time      `gorm:"column:end_date_time"`
	Venue            string          `gorm:"column:venue;type:text;not null"`
	Mode             enums.EventMode `gorm:"column:mode;type:text;not null"`
	Tags             []string        `gorm:"column:tags;type:text;serializer:json"`
	RegistrationLink *string         `gorm:"column:registration_link;type:text"`
	UpvoteCount      int             `gorm:"column:upvote_count;not null"`
	CommentCount     int             `gorm:"column:comment_count;not null"`
	IsPublished      bool            `gorm:"column:is_published;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;references:ID"`
	Author       *Principal    `gorm:"foreignKey:AuthorID;references:ID"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	if e.Mode == "" {
		e.Mode = enums.EventModeOffline
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return nil
}
