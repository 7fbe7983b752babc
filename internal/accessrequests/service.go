package accessrequests

import (
	"context"
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
)

const (
	alreadyMemberMessage    = "already a member"
	alreadyPendingMessage   = "request already pending"
	alreadyRespondedMessage = "request already responded"
	requestNotFoundMessage  = "request not found"
)

// Service runs the join-request workflow for organizations.
type Service interface {
	RequestAccess(ctx context.Context, principalID, organizationID uuid.UUID) (*AccessRequestDTO, error)
	// Approve accepts a pending request. A nil scope means the platform-wide
	// moderation path, which only super-admins may use.
	Approve(ctx context.Context, actor Actor, requestID uuid.UUID, scope *uuid.UUID) (*AccessRequestDTO, error)
	Reject(ctx context.Context, actor Actor, requestID uuid.UUID, scope *uuid.UUID) (*AccessRequestDTO, error)
	ListPending(ctx context.Context, actor Actor, organizationID uuid.UUID) ([]PendingRequest, error)
	ListAllPending(ctx context.Context, actor Actor) ([]PendingRequest, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type organizationLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	DB            txRunner
	Requests      Repository
	Memberships   memberships.Repository
	Authorizer    memberships.Service
	Organizations organizationLookup
	Outbox        outboxEmitter
	Logger        *logger.Logger
}

type service struct {
	db      txRunner
	repo    Repository
	members memberships.Repository
	authz   memberships.Service
	orgs    organizationLookup
	outbox  outboxEmitter
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	case p.Requests == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access requests repository required")
	case p.Memberships == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	case p.Authorizer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships service required")
	case p.Organizations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "organizations repository required")
	case p.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		db:      p.DB,
		repo:    p.Requests,
		members: p.Memberships,
		authz:   p.Authorizer,
		orgs:    p.Organizations,
		outbox:  p.Outbox,
		logg:    p.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) RequestAccess(ctx context.Context, principalID, organizationID uuid.UUID) (*AccessRequestDTO, error) {
	if principalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized")
	}
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	var created models.AccessRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		member, err := s.members.WithTx(tx).IsMember(ctx, principalID, organizationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
		}
		if member {
			return pkgerrors.New(pkgerrors.CodeConflict, alreadyMemberMessage)
		}

		repo := s.repo.WithTx(tx)
		pending, err := repo.HasPending(ctx, organizationID, principalID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeConflict, alreadyPendingMessage)
		}

		created = models.AccessRequest{
			OrganizationID: organizationID,
			PrincipalID:    principalID,
			Status:         enums.AccessRequestPending,
			RequestedAt:    s.now(),
		}
		inserted, err := repo.Create(ctx, &created)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_organization_requests_pending") {
				return pkgerrors.New(pkgerrors.CodeConflict, alreadyPendingMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create access request")
		}
		if !inserted {
			return pkgerrors.New(pkgerrors.CodeConflict, alreadyPendingMessage)
		}

		orgID := organizationID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateAccessRequest,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{PrincipalID: principalID, OrganizationID: &orgID},
			Data: payloads.AccessRequestFiledEvent{
				RequestID:      created.ID,
				OrganizationID: organizationID,
				PrincipalID:    principalID,
			},
		})
	})
	if err != nil {
		return nil, asServiceError(err, "request access")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"request_id":      created.ID.String(),
			"organization_id": organizationID.String(),
		})
		s.logg.Info(logCtx, "access request filed")
	}
	dto := fromModel(&created)
	return &dto, nil
}

func (s *service) Approve(ctx context.Context, actor Actor, requestID uuid.UUID, scope *uuid.UUID) (*AccessRequestDTO, error) {
	return s.respond(ctx, actor, requestID, scope, enums.AccessRequestApproved)
}

func (s *service) Reject(ctx context.Context, actor Actor, requestID uuid.UUID, scope *uuid.UUID) (*AccessRequestDTO, error) {
	return s.respond(ctx, actor, requestID, scope, enums.AccessRequestRejected)
}

func (s *service) respond(ctx context.Context, actor Actor, requestID uuid.UUID, scope *uuid.UUID, decision enums.AccessRequestStatus) (*AccessRequestDTO, error) {
	if err := s.authorizeModeration(ctx, actor, scope); err != nil {
		return nil, err
	}

	var updated models.AccessRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.GetForUpdate(ctx, requestID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, requestNotFoundMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load access request")
		}
		if scope != nil && req.OrganizationID != *scope {
			return pkgerrors.New(pkgerrors.CodeNotFound, requestNotFoundMessage)
		}
		if req.Status != enums.AccessRequestPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, alreadyRespondedMessage)
		}

		if decision == enums.AccessRequestApproved {
			if _, err := s.members.WithTx(tx).Create(ctx, req.OrganizationID, req.PrincipalID, enums.MemberRoleMember); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
			}
		}

		at := s.now()
		ok, err := repo.Respond(ctx, req.ID, decision, actor.PrincipalID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update access request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, alreadyRespondedMessage)
		}

		by := actor.PrincipalID
		updated = *req
		updated.Status = decision
		updated.RespondedAt = &at
		updated.RespondedBy = &by
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "respond to access request")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"request_id":      updated.ID.String(),
			"organization_id": updated.OrganizationID.String(),
			"decision":        decision,
		})
		logCtx = s.logg.WithPrincipalID(logCtx, actor.PrincipalID.String())
		s.logg.Info(logCtx, "access request responded")
	}
	dto := fromModel(&updated)
	return &dto, nil
}

func (s *service) ListPending(ctx context.Context, actor Actor, organizationID uuid.UUID) ([]PendingRequest, error) {
	if err := s.authorizeModeration(ctx, actor, &organizationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPending(ctx, &organizationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending requests")
	}
	return rows, nil
}

func (s *service) ListAllPending(ctx context.Context, actor Actor) ([]PendingRequest, error) {
	if err := s.authorizeModeration(ctx, actor, nil); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPending(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending requests")
	}
	return rows, nil
}

// authorizeModeration admits super-admins everywhere and org admins within
// their own organization.
func (s *service) authorizeModeration(ctx context.Context, actor Actor, scope *uuid.UUID) error {
	if s.authz.IsSuperAdmin(actor.Email) {
		return nil
	}
	if scope == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super-admin access required")
	}
	return s.authz.Authorize(ctx, actor.PrincipalID, *scope, enums.RequestModeratorRoles...)
}

func asServiceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
