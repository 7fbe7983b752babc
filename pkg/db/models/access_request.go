package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/enums"
)

// AccessRequest is a principal's request to join an organization.
// At most one pending row exists per (organization, principal).
type AccessRequest struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID                 `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_organization_requests_pending,where:status = 'pending'"`
	PrincipalID    uuid.UUID                 `gorm:"column:principal_id;type:uuid;not null;uniqueIndex:idx_organization_requests_pending,where:status = 'pending'"`
	Status         enums.AccessRequestStatus `gorm:"column:status;type:text;not null"`
	RequestedAt    time.Time                 `gorm:"column:requested_at;not null"`
	RespondedAt    *time.Time                `gorm:"column:responded_at"`
	RespondedBy    *uuid.UUID                `gorm:"column:responded_by;type:uuid"`
}

func (AccessRequest) TableName() string { return "organization_requests" }

func (r *AccessRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = enums.AccessRequestPending
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now().UTC()
	}
	return nil
}
