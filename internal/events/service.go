package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/internal/memberships"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/payloads"
	"github.com/loredrop/campus-backend/pkg/pagination"
	"github.com/loredrop/campus-backend/pkg/sanitize"
)

const (
	notMemberMessage     = "must be an approved member of this organization"
	byOrganizationLimit  = 100
	defaultUpcomingLimit = 5
	eventNotFoundMessage = "event not found"
	maxTagLength         = 40
)

// Service publishes and serves organization events.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input CreateEventRequest) (*EventDTO, error)
	// Feed lists published events newest first. viewer may be nil.
	Feed(ctx context.Context, viewer *uuid.UUID, organizationID *uuid.UUID, page pagination.Params) (*FeedResult, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*EventDTO, error)
	ByOrganization(ctx context.Context, organizationID uuid.UUID) ([]EventDTO, error)
	Upcoming(ctx context.Context, limit int) ([]EventDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type organizationLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type interactionLookup interface {
	ActiveKinds(ctx context.Context, principalID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]map[enums.InteractionKind]bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	DB            txRunner
	Repo          Repository
	Organizations organizationLookup
	Authorizer    memberships.Service
	Interactions  interactionLookup
	Outbox        outboxEmitter
	Logger        *logger.Logger
}

type service struct {
	db           txRunner
	repo         Repository
	orgs         organizationLookup
	authz        memberships.Service
	interactions interactionLookup
	outbox       outboxEmitter
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	case p.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	case p.Organizations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "organizations repository required")
	case p.Authorizer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships service required")
	case p.Interactions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "interactions service required")
	case p.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		db:           p.DB,
		repo:         p.Repo,
		orgs:         p.Organizations,
		authz:        p.Authorizer,
		interactions: p.Interactions,
		outbox:       p.Outbox,
		logg:         p.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input CreateEventRequest) (*EventDTO, error) {
	event, err := s.buildEvent(authorID, input)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Authorize(ctx, authorID, input.OrganizationID, enums.EventCreatorRoles...); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, notMemberMessage)
		}
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, input.OrganizationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}
		orgID := org.ID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventPublished,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{PrincipalID: authorID, OrganizationID: &orgID},
			Data: payloads.EventPublishedEvent{
				EventID:          event.ID,
				OrganizationID:   org.ID,
				AuthorID:         authorID,
				Title:            event.Title,
				OrganizationName: org.Name,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish event")
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrganizationID(ctx, org.ID.String())
		logCtx = s.logg.WithField(logCtx, "event_id", event.ID.String())
		s.logg.Info(logCtx, "event published")
	}

	event.Organization = org
	dto := fromModel(event)
	return &dto, nil
}

func (s *service) buildEvent(authorID uuid.UUID, in CreateEventRequest) (*models.Event, error) {
	details := map[string]string{}
	title := sanitize.PlainText(in.Title)
	if title == "" {
		details["title"] = "is required"
	}
	description := sanitize.RichText(in.Description)
	if description == "" {
		details["description"] = "is required"
	}
	if in.OrganizationID == uuid.Nil {
		details["organizationId"] = "is required"
	}
	if in.DateTime.IsZero() {
		details["dateTime"] = "is required"
	}
	if in.EndDateTime != nil && in.EndDateTime.Before(in.DateTime) {
		details["endDateTime"] = "must not be before dateTime"
	}
	venue := strings.TrimSpace(in.Venue)
	if venue == "" {
		venue = strings.TrimSpace(in.Location)
	}
	venue = sanitize.PlainText(venue)
	if venue == "" {
		details["venue"] = "is required"
	}
	mode, err := enums.ParseEventMode(strings.ToLower(strings.TrimSpace(in.Mode)))
	if err != nil {
		details["mode"] = "must be one of offline, online, hybrid"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").WithDetails(details)
	}

	event := &models.Event{
		OrganizationID:   in.OrganizationID,
		AuthorID:         authorID,
		Title:            title,
		Description:      description,
		DateTime:         in.DateTime.UTC(),
		Venue:            venue,
		Mode:             mode,
		Tags:             normalizeTags(in.Tags),
		RegistrationLink: trimmedOrNil(in.RegistrationLink),
		IsPublished:      true,
	}
	if in.EndDateTime != nil {
		end := in.EndDateTime.UTC()
		event.EndDateTime = &end
	}
	return event, nil
}

func (s *service) Feed(ctx context.Context, viewer *uuid.UUID, organizationID *uuid.UUID, page pagination.Params) (*FeedResult, error) {
	page = page.Normalize()
	rows, total, err := s.repo.ListPublished(ctx, organizationID, page.Offset(), page.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	items, err := s.enrich(ctx, viewer, rows)
	if err != nil {
		return nil, err
	}
	return &FeedResult{Data: items, Meta: page.MetaFor(total)}, nil
}

func (s *service) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*EventDTO, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, eventNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	items, err := s.enrich(ctx, viewer, []models.Event{*event})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *service) ByOrganization(ctx context.Context, organizationID uuid.UUID) ([]EventDTO, error) {
	rows, err := s.repo.ListByOrganization(ctx, organizationID, byOrganizationLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organization events")
	}
	return s.enrich(ctx, nil, rows)
}

func (s *service) Upcoming(ctx context.Context, limit int) ([]EventDTO, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	limit = pagination.NormalizeLimit(limit)
	rows, err := s.repo.ListUpcoming(ctx, s.now(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list upcoming events")
	}
	return s.enrich(ctx, nil, rows)
}

// enrich maps rows to DTOs and fills viewer flags in one lookup.
func (s *service) enrich(ctx context.Context, viewer *uuid.UUID, rows []models.Event) ([]EventDTO, error) {
	out := make([]EventDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	if viewer == nil || *viewer == uuid.Nil || len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, e := range out {
		ids = append(ids, e.ID)
	}
	active, err := s.interactions.ActiveKinds(ctx, *viewer, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		kinds := active[out[i].ID]
		out[i].HasUpvoted = kinds[enums.InteractionUpvote]
		out[i].HasCalendarSave = kinds[enums.InteractionCalendarSave]
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		clean := strings.ToLower(sanitize.PlainText(tag))
		if clean == "" || len(clean) > maxTagLength {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
