package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/loredrop/campus-backend/pkg/logger"
)

const defaultVerificationGrace = 24 * time.Hour

type codePurger interface {
	Purge(ctx context.Context, grace time.Duration) (int64, error)
}

type VerificationCleanupJobParams struct {
	Logger *logger.Logger
	Ledger codePurger
	Grace  time.Duration
}

// NewVerificationCleanupJob removes verification codes whose expiry is
// older than the grace window.
func NewVerificationCleanupJob(params VerificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("verification ledger required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultVerificationGrace
	}
	return &verificationCleanupJob{
		logg:   params.Logger,
		ledger: params.Ledger,
		grace:  grace,
	}, nil
}

type verificationCleanupJob struct {
	logg   *logger.Logger
	ledger codePurger
	grace  time.Duration
}

func (j *verificationCleanupJob) Name() string { return "verification-code-cleanup" }

func (j *verificationCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.ledger.Purge(ctx, j.grace)
	if err != nil {
		return fmt.Errorf("verification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"grace":        j.grace.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "verification code cleanup complete")
	return nil
}
