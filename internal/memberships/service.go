package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

// Service answers role-scoped authorization questions for organizations.
type Service interface {
	// Authorize returns nil when the principal holds one of roles in the
	// organization, and a CodeForbidden error otherwise.
	Authorize(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) error
	IsSuperAdmin(email string) bool
}

type service struct {
	repo   Repository
	admins SuperAdmins
}

func NewService(repo Repository, admins SuperAdmins) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	return &service{repo: repo, admins: admins}, nil
}

func (s *service) Authorize(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) error {
	if principalID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "principal required")
	}
	if organizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "organization required")
	}
	if len(roles) == 0 {
		return pkgerrors.New(pkgerrors.CodeForbidden, "no role grants this action")
	}

	ok, err := s.repo.HasRole(ctx, principalID, organizationID, roles...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("requires organization role %v", roles))
	}
	return nil
}

func (s *service) IsSuperAdmin(email string) bool {
	return s.admins.Contains(email)
}
