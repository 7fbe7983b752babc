package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/api/validators"
	"github.com/loredrop/campus-backend/internal/events"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/pagination"
)

// EventsFeed serves published events newest first. Viewer flags are filled
// when the optional credential resolved.
func EventsFeed(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "events")
			return
		}

		query := r.URL.Query()
		page := pagination.Parse(query.Get("page"), query.Get("limit"))

		var orgID *uuid.UUID
		if raw := strings.TrimSpace(query.Get("organizationId")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid organizationId").
					WithDetails(map[string]string{"organizationId": "must be a valid id"}))
				return
			}
			orgID = &parsed
		}

		feed, err := svc.Feed(r.Context(), viewerID(r), orgID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, feed)
	}
}

func UpcomingEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "events")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Upcoming(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "events")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId", "event")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Get(r.Context(), viewerID(r), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func EventsByOrganization(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "events")
			return
		}
		orgID, err := validators.ParseUUIDParam(r, "orgId", "organization")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ByOrganization(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "events")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var body events.CreateEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Create(r.Context(), principal.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}
