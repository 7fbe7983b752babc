package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
)

// OrgAuthorizer is the membership registry surface used by route guards.
type OrgAuthorizer interface {
	Authorize(ctx context.Context, principalID, organizationID uuid.UUID, roles ...enums.MemberRole) error
	IsSuperAdmin(email string) bool
}

// RequireOrgRoles admits principals holding one of allowed in the
// organization named by the URL param. Super-admins pass unconditionally.
func RequireOrgRoles(authz OrgAuthorizer, param string, logg *logger.Logger, allowed ...enums.MemberRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if authz == nil || len(allowed) == 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization guard misconfigured"))
				return
			}

			principal, ok := PrincipalFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}

			orgID, err := uuid.Parse(chi.URLParam(r, param))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid organization id"))
				return
			}
			if logg != nil {
				ctx = logg.WithOrganizationID(ctx, orgID.String())
			}

			if authz.IsSuperAdmin(principal.Email) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if err := authz.Authorize(ctx, principal.ID, orgID, allowed...); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
