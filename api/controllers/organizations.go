package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/internal/organizations"
	"github.com/loredrop/campus-backend/pkg/logger"
)

func ListOrganizations(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "organizations")
			return
		}
		orgs, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orgs)
	}
}

func GetOrganization(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "organizations")
			return
		}
		org, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}
