package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/api/middleware"
	"github.com/loredrop/campus-backend/api/responses"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
)

// requirePrincipal returns the authenticated caller or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (middleware.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
		return middleware.Principal{}, false
	}
	return principal, true
}

// viewerID returns the optional caller id for endpoints behind OptionalAuth.
func viewerID(r *http.Request) *uuid.UUID {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return nil
	}
	id := principal.ID
	return &id
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
