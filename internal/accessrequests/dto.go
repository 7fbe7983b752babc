package accessrequests

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

type AccessRequestDTO struct {
	ID             uuid.UUID                 `json:"id"`
	OrganizationID uuid.UUID                 `json:"organizationId"`
	PrincipalID    uuid.UUID                 `json:"userId"`
	Status         enums.AccessRequestStatus `json:"status"`
	RequestedAt    time.Time                 `json:"requestedAt"`
	RespondedAt    *time.Time                `json:"respondedAt,omitempty"`
	RespondedBy    *uuid.UUID                `json:"respondedBy,omitempty"`
}

type Requester struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

// PendingRequest is a pending request with its requester and organization.
type PendingRequest struct {
	AccessRequestDTO
	OrganizationName string    `json:"organizationName"`
	OrganizationSlug string    `json:"organizationSlug"`
	Requester        Requester `json:"user"`
}

// Actor is the authenticated principal acting on a request.
type Actor struct {
	PrincipalID uuid.UUID
	Email       string
}

func fromModel(m *models.AccessRequest) AccessRequestDTO {
	return AccessRequestDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		PrincipalID:    m.PrincipalID,
		Status:         m.Status,
		RequestedAt:    m.RequestedAt,
		RespondedAt:    m.RespondedAt,
		RespondedBy:    m.RespondedBy,
	}
}
