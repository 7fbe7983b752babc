package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
)

// Repository persists verification codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Replace removes every code for the email and stores code as the only one.
	Replace(ctx context.Context, code *models.VerificationCode) error
	FindByEmailAndCode(ctx context.Context, email, code string) (*models.VerificationCode, error)
	// MarkVerified flips an unverified code and reports whether this call did it.
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteVerified(ctx context.Context, email string, now time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
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

func (r *repositoryImpl) Replace(ctx context.Context, code *models.VerificationCode) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("email = ?", code.Email).Delete(&models.VerificationCode{}).Error; err != nil {
		return err
	}
	return conn.Create(code).Error
}

func (r *repositoryImpl) FindByEmailAndCode(ctx context.Context, email, code string) (*models.VerificationCode, error) {
	var row models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND verified = ?", id, false).
		UpdateColumn("verified", true)
	return result.RowsAffected == 1, result.Error
}

func (r *repositoryImpl) DeleteVerified(ctx context.Context, email string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("email = ? AND verified = ? AND expires_at > ?", email, true, now).
		Delete(&models.VerificationCode{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.VerificationCode{})
	return result.RowsAffected, result.Error
}
