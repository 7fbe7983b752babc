package controllers

import (
	"net/http"

	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/api/validators"
	"github.com/loredrop/campus-backend/internal/interactions"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
)

// toggleField names the boolean the original clients read for each kind.
func toggleField(kind enums.InteractionKind) string {
	if kind == enums.InteractionUpvote {
		return "upvoted"
	}
	return "saved"
}

func checkField(kind enums.InteractionKind) string {
	if kind == enums.InteractionUpvote {
		return "hasUpvoted"
	}
	return "saved"
}

// ToggleInteraction flips the caller's upvote or calendar save on an event.
func ToggleInteraction(svc interactions.Service, kind enums.InteractionKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "interactions")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId", "event")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.Toggle(r.Context(), kind, eventID, principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{toggleField(kind): active})
	}
}

func CheckInteraction(svc interactions.Service, kind enums.InteractionKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "interactions")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId", "event")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.IsActive(r.Context(), kind, eventID, principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{checkField(kind): active})
	}
}

func ListCalendarSaves(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "interactions")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		saved, err := svc.ListSaved(r.Context(), principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

func AddComment(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "interactions")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId", "event")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body interactions.CommentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), eventID, principal.ID, body.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}

func ListComments(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "interactions")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId", "event")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comments, err := svc.ListComments(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, comments)
	}
}
