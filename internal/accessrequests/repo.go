package accessrequests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

// Repository exposes access request persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts a pending request. It reports false when a pending
	// request for the same pair already exists.
	Create(ctx context.Context, req *models.AccessRequest) (bool, error)
	HasPending(ctx context.Context, organizationID, principalID uuid.UUID) (bool, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error)
	// Respond moves a pending request to a terminal status. It reports false
	// when the request was no longer pending.
	Respond(ctx context.Context, id uuid.UUID, status enums.AccessRequestStatus, by uuid.UUID, at time.Time) (bool, error)
	ListPending(ctx context.Context, organizationID *uuid.UUID) ([]PendingRequest, error)
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

func (r *repositoryImpl) Create(ctx context.Context, req *models.AccessRequest) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(req)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) HasPending(ctx context.Context, organizationID, principalID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AccessRequest{}).
		Where("organization_id = ? AND principal_id = ? AND status = ?", organizationID, principalID, enums.AccessRequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.AccessRequest, error) {
	var req models.AccessRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repositoryImpl) Respond(ctx context.Context, id uuid.UUID, status enums.AccessRequestStatus, by uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AccessRequest{}).
		Where("id = ? AND status = ?", id, enums.AccessRequestPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": at,
			"responded_by": by,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

type pendingRow struct {
	models.AccessRequest
	OrganizationName string
	OrganizationSlug string
	DisplayName      string
	Email            string
}

// ListPending returns pending requests newest first, scoped to one
// organization when organizationID is set.
func (r *repositoryImpl) ListPending(ctx context.Context, organizationID *uuid.UUID) ([]PendingRequest, error) {
	q := r.db.WithContext(ctx).
		Model(&models.AccessRequest{}).
		Select("organization_requests.*, organizations.name AS organization_name, organizations.slug AS organization_slug, principals.display_name AS display_name, principals.email AS email").
		Joins("JOIN organizations ON organizations.id = organization_requests.organization_id").
		Joins("JOIN principals ON principals.id = organization_requests.principal_id").
		Where("organization_requests.status = ?", enums.AccessRequestPending)
	if organizationID != nil {
		q = q.Where("organization_requests.organization_id = ?", *organizationID)
	}

	var rows []pendingRow
	if err := q.Order("organization_requests.requested_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]PendingRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingRequest{
			AccessRequestDTO: fromModel(&row.AccessRequest),
			OrganizationName: row.OrganizationName,
			OrganizationSlug: row.OrganizationSlug,
			Requester: Requester{
				ID:          row.PrincipalID,
				DisplayName: row.DisplayName,
				Email:       row.Email,
			},
		})
	}
	return out, nil
}
