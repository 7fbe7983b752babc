package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/enums"
)

type Sender struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
}

type EventRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	RequestID *uuid.UUID             `json:"requestId,omitempty"`
	Event     *EventRef              `json:"event,omitempty"`
	From      *Sender                `json:"from,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func fromRow(row notificationRow) NotificationDTO {
	dto := NotificationDTO{
		ID:        row.ID,
		Type:      row.Type,
		Message:   row.Message,
		Read:      row.Read,
		ReadAt:    row.ReadAt,
		RequestID: row.RequestID,
		CreatedAt: row.CreatedAt,
	}
	if row.EventID != nil {
		dto.Event = &EventRef{ID: *row.EventID, Title: deref(row.EventTitle)}
	}
	if row.FromPrincipalID != nil {
		dto.From = &Sender{
			ID:          *row.FromPrincipalID,
			DisplayName: deref(row.FromDisplayName),
			Avatar:      deref(row.FromAvatarURL),
		}
	}
	return dto
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
