package principals

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loredrop/campus-backend/pkg/db/models"
)

// Repository exposes principal persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// CreateIfAbsent inserts p unless a unique constraint already holds a
	// matching row. It reports whether the insert happened.
	CreateIfAbsent(ctx context.Context, p *models.Principal) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*models.Principal, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.Principal, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error
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

func (r *repositoryImpl) CreateIfAbsent(ctx context.Context, p *models.Principal) (bool, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	var p models.Principal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	var p models.Principal
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) FindByFederatedID(ctx context.Context, federatedID string) (*models.Principal, error) {
	var p models.Principal
	if err := r.db.WithContext(ctx).Where("federated_id = ?", federatedID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) FindByEmails(ctx context.Context, emails []string) ([]models.Principal, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var rows []models.Principal
	err := r.db.WithContext(ctx).
		Where("email IN ?", emails).
		Order("email").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Principal{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()}).Error
}

func (r *repositoryImpl) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Principal{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *repositoryImpl) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Principal{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
