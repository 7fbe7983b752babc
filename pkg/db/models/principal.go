package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// Principal is the canonical identity entity. Principals are never hard-deleted.
type Principal struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Email        string              `gorm:"column:email;type:text;not null;uniqueIndex:idx_principals_email"`
	PasswordHash *string             `gorm:"column:password_hash;type:text"`
	FederatedID  *string             `gorm:"column:federated_id;type:text;uniqueIndex:idx_principals_federated_id,where:federated_id IS NOT NULL"`
	DisplayName  string              `gorm:"column:display_name;type:text;not null"`
	Name         string              `gorm:"column:name;type:text;not null"`
	RollNo       *string             `gorm:"column:roll_no;type:text"`
	Branch       *string             `gorm:"column:branch;type:text"`
	AvatarURL    string              `gorm:"column:avatar_url;type:text;not null"`
	Role         enums.PrincipalRole `gorm:"column:role;type:text;not null"`
	LastLoginAt  *time.Time          `gorm:"column:last_login_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Principal) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Role == "" {
		p.Role = enums.PrincipalRoleStudent
	}
	return nil
}

// HasPassword reports whether the principal finished password setup.
func (p *Principal) HasPassword() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}
