package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/internal/memberships"
	"github.com/loredrop/campus-backend/internal/principals"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox/payloads"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
)

const defaultFanoutBatchSize = 500

type notificationMetrics interface {
	AddNotifications(notificationType string, n int)
}

type FanoutParams struct {
	Repo        Repository
	Principals  principals.Repository
	SuperAdmins memberships.SuperAdmins
	BatchSize   int
	Metrics     notificationMetrics
	Logger      *logger.Logger
}

// Fanout turns resolved domain events into notification rows.
type Fanout struct {
	repo       Repository
	principals principals.Repository
	admins     memberships.SuperAdmins
	batchSize  int
	metrics    notificationMetrics
	logg       *logger.Logger
}

func NewFanout(p FanoutParams) (*Fanout, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if p.Principals == nil {
		return nil, fmt.Errorf("principals repository required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	size := p.BatchSize
	if size <= 0 {
		size = defaultFanoutBatchSize
	}
	return &Fanout{
		repo:       p.Repo,
		principals: p.Principals,
		admins:     p.SuperAdmins,
		batchSize:  size,
		metrics:    p.Metrics,
		logg:       p.Logger,
	}, nil
}

// Handle writes the notifications for one event through tx. Unknown event
// types are ignored.
func (f *Fanout) Handle(ctx context.Context, tx *gorm.DB, resolved *registry.ResolvedEvent) error {
	if resolved == nil {
		return registry.NewNonRetryableError(fmt.Errorf("resolved event required"))
	}
	logCtx := f.logg.WithFields(ctx, map[string]any{
		"event_id":   resolved.Envelope.EventID,
		"event_type": resolved.Descriptor.EventType,
	})

	switch payload := resolved.Payload.(type) {
	case *payloads.EventPublishedEvent:
		return f.eventPublished(logCtx, tx, payload)
	case *payloads.AccessRequestFiledEvent:
		return f.accessRequestFiled(logCtx, tx, payload)
	default:
		f.logg.Info(logCtx, "no notifications for event type")
		return nil
	}
}

func (f *Fanout) eventPublished(ctx context.Context, tx *gorm.DB, p *payloads.EventPublishedEvent) error {
	if p.EventID == uuid.Nil {
		return registry.NewNonRetryableError(fmt.Errorf("event id missing"))
	}
	orgName := p.OrganizationName
	if orgName == "" {
		orgName = "An organization"
	}
	message := fmt.Sprintf("New event: \"%s\" from %s", p.Title, orgName)
	eventID := p.EventID
	authorID := p.AuthorID

	repo := f.repo.WithTx(tx)
	total := 0
	err := repo.RecipientBatches(ctx, p.AuthorID, f.batchSize, func(ids []uuid.UUID) error {
		rows := make([]models.Notification, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, models.Notification{
				RecipientID:     id,
				Type:            enums.NotificationTypeNewOrgEvent,
				EventID:         &eventID,
				FromPrincipalID: &authorID,
				Message:         message,
			})
		}
		if err := repo.CreateBatch(ctx, rows, f.batchSize); err != nil {
			return err
		}
		total += len(rows)
		return nil
	})
	if err != nil {
		return fmt.Errorf("fan out event %s: %w", p.EventID, err)
	}

	f.record(enums.NotificationTypeNewOrgEvent, total)
	f.logg.Info(f.logg.WithField(ctx, "recipients", total), "event publish notifications created")
	return nil
}

func (f *Fanout) accessRequestFiled(ctx context.Context, tx *gorm.DB, p *payloads.AccessRequestFiledEvent) error {
	if p.RequestID == uuid.Nil {
		return registry.NewNonRetryableError(fmt.Errorf("request id missing"))
	}
	if f.admins.Len() == 0 {
		f.logg.Warn(ctx, "no super-admins configured; access request notification skipped")
		return nil
	}

	repo := f.repo.WithTx(tx)
	desc, err := repo.DescribeRequest(ctx, p.RequestID)
	if err != nil {
		if db.IsNotFound(err) {
			return registry.NewNonRetryableError(fmt.Errorf("access request %s not found", p.RequestID))
		}
		return err
	}

	admins, err := f.principals.WithTx(tx).FindByEmails(ctx, f.admins.Emails())
	if err != nil {
		return fmt.Errorf("load super-admins: %w", err)
	}

	requestID := p.RequestID
	requesterID := p.PrincipalID
	message := fmt.Sprintf("%s requested to join %s", desc.RequesterName, desc.OrganizationName)
	rows := make([]models.Notification, 0, len(admins))
	for _, admin := range admins {
		if admin.ID == p.PrincipalID {
			continue
		}
		rows = append(rows, models.Notification{
			RecipientID:     admin.ID,
			Type:            enums.NotificationTypeAccessRequest,
			RequestID:       &requestID,
			FromPrincipalID: &requesterID,
			Message:         message,
		})
	}
	if err := repo.CreateBatch(ctx, rows, f.batchSize); err != nil {
		return fmt.Errorf("create access request notifications: %w", err)
	}

	f.record(enums.NotificationTypeAccessRequest, len(rows))
	f.logg.Info(f.logg.WithField(ctx, "recipients", len(rows)), "access request notifications created")
	return nil
}

func (f *Fanout) record(t enums.NotificationType, n int) {
	if f.metrics != nil && n > 0 {
		f.metrics.AddNotifications(string(t), n)
	}
}
