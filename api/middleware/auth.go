package middleware

import (
	"context"
	"net/http"

	"github.com/loredrop/campus-backend/api/responses"
	pkgauth "github.com/loredrop/campus-backend/pkg/auth"
	"github.com/loredrop/campus-backend/pkg/db/models"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
)

// Authenticator resolves a raw credential (composite token or federated ID
// token) into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.Principal, error)
}

// Auth rejects the request with 401 unless the bearer credential resolves.
// Store failures while resolving it surface as they are, not as 401.
func Auth(authn Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgauth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}
			principal, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if pkgerrors.As(err) == nil {
					err = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unauthorized")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachPrincipal(r.Context(), logg, principal)))
		})
	}
}

// OptionalAuth attaches the principal when the credential resolves and
// otherwise continues anonymously. A store failure still fails the request.
func OptionalAuth(authn Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgauth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := authn.Authenticate(r.Context(), token)
			switch {
			case pkgerrors.IsCode(err, pkgerrors.CodeDependency):
				responses.WriteError(r.Context(), logg, w, err)
			case err != nil:
				if logg != nil {
					logg.Debug(r.Context(), "optional auth ignored invalid credential")
				}
				next.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r.WithContext(attachPrincipal(r.Context(), logg, principal)))
			}
		})
	}
}

func attachPrincipal(ctx context.Context, logg *logger.Logger, p *models.Principal) context.Context {
	ctx = WithPrincipal(ctx, Principal{ID: p.ID, Email: p.Email, Role: p.Role})
	if logg != nil {
		ctx = logg.WithPrincipalID(ctx, p.ID.String())
		ctx = logg.WithActorRole(ctx, string(p.Role))
	}
	return ctx
}
