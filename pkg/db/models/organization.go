package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// Organization is a campus club, society, fest or department that hosts events.
type Organization struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                 `gorm:"column:name;type:text;not null"`
	Slug        string                 `gorm:"column:slug;type:text;not null;uniqueIndex:idx_organizations_slug"`
	Description string                 `gorm:"column:description;type:text;not null"`
	Type        enums.OrganizationType `gorm:"column:type;type:text;not null"`
	LogoURL     *string                `gorm:"column:logo_url;type:text"`
	IsVerified  bool                   `gorm:"column:is_verified;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Type == "" {
		o.Type = enums.OrganizationTypeClub
	}
	return nil
}
