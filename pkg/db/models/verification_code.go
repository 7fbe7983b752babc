package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationCode is a single-use proof-of-inbox code. At most one row exists per email.
type VerificationCode struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;index:idx_verification_codes_email"`
	Code      string    `gorm:"column:code;type:text;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Verified  bool      `gorm:"column:verified;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *VerificationCode) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Expired reports whether the code is past its expiry at the given instant.
func (v *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
