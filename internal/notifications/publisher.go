package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
)

// LocalPublisher delivers outbox rows in-process by running the fan-out
// inside the relay's savepoint.
type LocalPublisher struct {
	fanout *Fanout
}

func NewLocalPublisher(fanout *Fanout) *LocalPublisher {
	return &LocalPublisher{fanout: fanout}
}

func (p *LocalPublisher) Publish(ctx context.Context, tx *gorm.DB, _ models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	return p.fanout.Handle(ctx, tx, resolved)
}
