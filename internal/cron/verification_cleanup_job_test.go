package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loredrop/campus-backend/pkg/logger"
)

type fakePurger struct {
	grace time.Duration
	err   error
}

func (f *fakePurger) Purge(_ context.Context, grace time.Duration) (int64, error) {
	f.grace = grace
	return 3, f.err
}

func TestVerificationCleanupJobDefaultsGrace(t *testing.T) {
	purger := &fakePurger{}
	job, err := NewVerificationCleanupJob(VerificationCleanupJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Ledger: purger,
	})
	require.NoError(t, err)
	assert.Equal(t, "verification-code-cleanup", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, defaultVerificationGrace, purger.grace)
}

func TestVerificationCleanupJobWrapsError(t *testing.T) {
	job, err := NewVerificationCleanupJob(VerificationCleanupJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Ledger: &fakePurger{err: errors.New("db down")},
		Grace:  time.Hour,
	})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "verification cleanup")
}

func TestNewVerificationCleanupJobRequiresLedger(t *testing.T) {
	_, err := NewVerificationCleanupJob(VerificationCleanupJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	assert.Error(t, err)
}
