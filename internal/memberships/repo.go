package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts a membership; it reports false when the pair already exists.
	Create(ctx context.Context, organizationID, principalID uuid.UUID, role enums.MemberRole) (bool, error)
	HasRole(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error)
	IsMember(ctx context.Context, principalID, organizationID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, organizationID, principalID uuid.UUID, role enums.MemberRole) (bool, error) {
	if !role.IsValid() {
		return false, fmt.Errorf("invalid member role %q", role)
	}
	m := &models.Membership{
		OrganizationID: organizationID,
		PrincipalID:    principalID,
		Role:           role,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasRole reports whether the principal holds one of the provided roles in the organization.
func (r *repositoryImpl) HasRole(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("principal_id = ? AND organization_id = ? AND role IN ?", principalID, organizationID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) IsMember(ctx context.Context, principalID, organizationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("principal_id = ? AND organization_id = ?", principalID, organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
