// Package verification issues and checks single-use email verification codes.
package verification

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/security"
)

const (
	codeDigits     = 6
	DefaultCodeTTL = 15 * time.Minute
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Ledger issues, verifies and expires codes. At most one code exists per email.
type Ledger struct {
	tx      txRunner
	repo    Repository
	ttl     time.Duration
	now     func() time.Time
	newCode func() (string, error)
}

func NewLedger(tx txRunner, repo Repository, ttl time.Duration) (*Ledger, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "verification repository required")
	}
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &Ledger{
		tx:      tx,
		repo:    repo,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		newCode: func() (string, error) { return security.NumericCode(codeDigits) },
	}, nil
}

// Issue replaces any existing code for email with a fresh one.
func (l *Ledger) Issue(ctx context.Context, email string) (*models.VerificationCode, error) {
	code, err := l.newCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	now := l.now()
	row := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}
	err = l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return l.repo.WithTx(tx).Replace(ctx, row)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}
	return row, nil
}

// Verify claims the matching code. A code verifies once; presenting it again
// is rejected even inside its TTL.
func (l *Ledger) Verify(ctx context.Context, email, code string) error {
	row, err := l.repo.FindByEmailAndCode(ctx, email, strings.TrimSpace(code))
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid verification code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}
	if row.Expired(l.now()) {
		return pkgerrors.New(pkgerrors.CodeExpired, "verification code expired")
	}
	claimed, err := l.repo.MarkVerified(ctx, row.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark code verified")
	}
	if !claimed {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification code already used")
	}
	return nil
}

// Consume deletes the verified, unexpired code for email inside tx. It fails
// with CodeForbidden when there is none, so each verification backs exactly
// one privileged step.
func (l *Ledger) Consume(ctx context.Context, tx *gorm.DB, email string) error {
	deleted, err := l.repo.WithTx(tx).DeleteVerified(ctx, email, l.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume verification code")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeForbidden, "email not verified")
	}
	return nil
}

// Purge deletes codes that expired before now minus grace.
func (l *Ledger) Purge(ctx context.Context, grace time.Duration) (int64, error) {
	return l.repo.DeleteExpiredBefore(ctx, l.now().Add(-grace))
}
