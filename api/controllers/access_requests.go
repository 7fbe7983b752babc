package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/api/middleware"
	"github.com/loredrop/campus-backend/api/responses"
	"github.com/loredrop/campus-backend/api/validators"
	"github.com/loredrop/campus-backend/internal/accessrequests"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
)

func actorFrom(p middleware.Principal) accessrequests.Actor {
	return accessrequests.Actor{PrincipalID: p.ID, Email: p.Email}
}

// RequestAccess files a pending membership request for the caller.
func RequestAccess(svc accessrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "access requests")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		orgID, err := validators.ParseUUIDParam(r, "orgId", "organization")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.RequestAccess(r.Context(), principal.ID, orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Access request sent to organization admins",
			"request": request,
		})
	}
}

// ListPendingRequests serves the org-scoped queue. With scoped=false it
// serves the platform-wide queue for super-admins.
func ListPendingRequests(svc accessrequests.Service, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "access requests")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var (
			pending []accessrequests.PendingRequest
			err     error
		)
		if scoped {
			orgID, parseErr := validators.ParseUUIDParam(r, "orgId", "organization")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			pending, err = svc.ListPending(r.Context(), actorFrom(principal), orgID)
		} else {
			pending, err = svc.ListAllPending(r.Context(), actorFrom(principal))
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pending)
	}
}

// ApproveAccessRequest accepts a pending request. scoped selects the
// /{orgId}/ path; otherwise only super-admins may moderate.
func ApproveAccessRequest(svc accessrequests.Service, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return respondAccessRequest(svc, enums.AccessRequestApproved, scoped, logg)
}

func RejectAccessRequest(svc accessrequests.Service, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return respondAccessRequest(svc, enums.AccessRequestRejected, scoped, logg)
}

func respondAccessRequest(svc accessrequests.Service, decision enums.AccessRequestStatus, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "access requests")
			return
		}
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "requestId", "request")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var scope *uuid.UUID
		if scoped {
			orgID, parseErr := validators.ParseUUIDParam(r, "orgId", "organization")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			scope = &orgID
		}

		var result *accessrequests.AccessRequestDTO
		if decision == enums.AccessRequestApproved {
			result, err = svc.Approve(r.Context(), actorFrom(principal), requestID, scope)
		} else {
			result, err = svc.Reject(r.Context(), actorFrom(principal), requestID, scope)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"success": true,
			"message": "Request " + string(result.Status),
			"request": result,
		})
	}
}
