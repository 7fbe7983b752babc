package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// Membership links a principal with an organization and captures their role.
type Membership struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_organization_members_org_principal"`
	PrincipalID    uuid.UUID        `gorm:"column:principal_id;type:uuid;not null;uniqueIndex:idx_organization_members_org_principal"`
	Role           enums.MemberRole `gorm:"column:role;type:text;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Membership) TableName() string { return "organization_members" }

func (m *Membership) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
