package payloads

import "github.com/google/uuid"

// EventPublishedEvent is emitted when an organization publishes an event.
type EventPublishedEvent struct {
	EventID          uuid.UUID `json:"event_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	AuthorID         uuid.UUID `json:"author_id"`
	Title            string    `json:"title"`
	OrganizationName string    `json:"organization_name"`
}

// AccessRequestFiledEvent is emitted when a principal asks to join an organization.
type AccessRequestFiledEvent struct {
	RequestID      uuid.UUID `json:"request_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	PrincipalID    uuid.UUID `json:"principal_id"`
}
