package middleware

import (
	"net/http"

	"github.com/loredrop/campus-backend/api/responses"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
)

type superAdminChecker interface {
	IsSuperAdmin(email string) bool
}

// RequireSuperAdmin restricts a route to the configured super-admin emails.
func RequireSuperAdmin(checker superAdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}
			if checker == nil || !checker.IsSuperAdmin(principal.Email) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "super-admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
