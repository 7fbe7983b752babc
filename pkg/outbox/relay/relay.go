package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// Publisher delivers one resolved outbox row. The tx is a savepoint inside
// the relay transaction; in-process publishers write through it so delivery
// and the published mark commit together.
type Publisher interface {
	Publish(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error

func (f PublisherFunc) Publish(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	return f(ctx, tx, event, resolved)
}

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Pinger is checked once before the relay starts polling.
type Pinger interface {
	Ping(context.Context) error
}

type Params struct {
	Config     config.OutboxConfig
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Registry   registryResolver
	Publisher  Publisher
	Metrics    *metrics.OutboxMetrics
	// Dependencies are pinged in addition to the database before polling starts.
	Dependencies map[string]Pinger
}

// Relay polls committed outbox rows and hands each to a Publisher.
// Delivery is at-least-once; failures are recorded on the row and retried.
type Relay struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	registry     registryResolver
	publisher    Publisher
	metrics      *metrics.OutboxMetrics
	deps         map[string]Pinger
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func New(params Params) (*Relay, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	interval := params.Config.PollInterval()
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}

	return &Relay{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		registry:     params.Registry,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		deps:         params.Dependencies,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
	}, nil
}

func (r *Relay) ensureReadiness(ctx context.Context) error {
	if err := r.pingDependency(ctx, "database", r.db); err != nil {
		return err
	}
	for name, dep := range r.deps {
		if dep == nil {
			continue
		}
		if err := r.pingDependency(ctx, name, dep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Relay) pingDependency(ctx context.Context, name string, p Pinger) error {
	if err := p.Ping(ctx); err != nil {
		r.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run polls until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := r.pollInterval
	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "outbox relay context canceled")
			return ctx.Err()
		default:
		}

		processed, err := r.ProcessBatch(ctx)
		if err != nil {
			r.logg.Error(ctx, "outbox relay batch error", err)
			backoff = nextBackoff(backoff, r.pollInterval, maxBackoff)
			if err := sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = r.pollInterval
		if processed {
			continue
		}
		if err := sleep(ctx, withJitter(r.pollInterval)); err != nil {
			return err
		}
	}
}

// ProcessBatch delivers one batch and reports whether any row was found.
func (r *Relay) ProcessBatch(ctx context.Context) (bool, error) {
	processed := false
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		processed = true
		for _, event := range events {
			if err := r.deliver(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// deliver returns an error only when bookkeeping on the row itself fails.
func (r *Relay) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := r.registry.Resolve(event)
	if err != nil {
		return r.handleTerminal(ctx, tx, event, err, nil)
	}

	fields := r.eventFields(event, resolved.Envelope, resolved.Descriptor.Topic)
	pubErr := tx.Transaction(func(sp *gorm.DB) error {
		return r.publisher.Publish(ctx, sp, event, resolved)
	})
	if pubErr == nil {
		if err := r.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.metrics.IncDelivered(string(event.EventType))
		r.logg.Debug(r.logg.WithFields(ctx, fields), "outbox event delivered")
		return nil
	}

	if registry.IsNonRetryable(pubErr) {
		return r.handleTerminal(ctx, tx, event, pubErr, fields)
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if nextAttempt >= r.maxAttempts {
		fields["terminal_reason"] = "max_attempts"
		return r.handleTerminal(ctx, tx, event, fmt.Errorf("max delivery attempts reached: %w", pubErr), fields)
	}

	logCtx := r.logg.WithFields(ctx, fields)
	logCtx = r.logg.WithField(logCtx, "error", pubErr.Error())
	r.logg.Warn(logCtx, "outbox delivery failed")
	if err := r.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	r.metrics.IncFailed(string(event.EventType), false)
	return nil
}

func (r *Relay) handleTerminal(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, err error, fields map[string]any) error {
	if fields == nil {
		fields = r.eventFields(event, outbox.PayloadEnvelope{}, "")
	}
	logCtx := r.logg.WithFields(ctx, fields)
	logCtx = r.logg.WithField(logCtx, "error", err.Error())
	r.logg.Warn(logCtx, "outbox event will not be retried")

	if markErr := r.repo.MarkTerminalTx(tx, event.ID, err, r.maxAttempts); markErr != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, markErr)
	}
	r.metrics.IncFailed(string(event.EventType), true)
	return nil
}

func (r *Relay) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
