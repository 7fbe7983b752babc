package controllers

import (
	"context"
	"net/http"

	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/api/validators"
	"github.com/loredrop/campus-backend/internal/auth"
	"github.com/loredrop/campus-backend/internal/principals"
	"github.com/loredrop/campus-backend/pkg/logger"
)

// decodeAndCall serves the anonymous auth endpoints: one JSON body in, one
// result out.
func decodeAndCall[Req, Res any](logg *logger.Logger, call func(context.Context, Req) (Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := call(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func unavailable(logg *logger.Logger, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceUnavailable(w, r, logg, name)
	}
}

// AuthSendVerificationCode issues a fresh email code.
func AuthSendVerificationCode(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return decodeAndCall(logg, svc.SendVerificationCode)
}

// AuthVerifyCode answers needsPassword instead of a token on first signup.
func AuthVerifyCode(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return decodeAndCall(logg, svc.VerifyCode)
}

func AuthSetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return decodeAndCall(logg, svc.SetPassword)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return decodeAndCall(logg, svc.Login)
}

func AuthMe(svc principals.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "principals")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		me, err := svc.Me(r.Context(), principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, me)
	}
}

func AuthUpdateProfile(svc principals.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "principals")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		var body principals.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateProfile(r.Context(), principal.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
