package interactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type CommentAuthor struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
}

type CommentDTO struct {
	ID        uuid.UUID     `json:"id"`
	EventID   uuid.UUID     `json:"eventId"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
	User      CommentAuthor `json:"user"`
}

type SavedOrganization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Logo *string   `json:"logo,omitempty"`
}

type SavedEvent struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	DateTime     time.Time          `json:"dateTime"`
	EndDateTime  *time.Time         `json:"endDateTime,omitempty"`
	Venue        string             `json:"venue"`
	Mode         enums.EventMode    `json:"mode"`
	Tags         []string           `json:"tags"`
	UpvoteCount  int                `json:"upvoteCount"`
	CommentCount int                `json:"commentCount"`
	Organization *SavedOrganization `json:"organization,omitempty"`
}

// CalendarSave is one entry of a principal's saved-events list.
type CalendarSave struct {
	SavedAt time.Time  `json:"savedAt"`
	Event   SavedEvent `json:"event"`
}

func commentFromModel(c *models.EventComment) CommentDTO {
	dto := CommentDTO{
		ID:        c.ID,
		EventID:   c.EventID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		User:      CommentAuthor{ID: c.PrincipalID},
	}
	if c.Principal != nil {
		dto.User.DisplayName = c.Principal.DisplayName
		dto.User.Avatar = c.Principal.AvatarURL
	}
	return dto
}

func savedFromRecord(r *SavedRecord) CalendarSave {
	e := r.Event
	out := CalendarSave{
		SavedAt: r.CreatedAt,
		Event: SavedEvent{
			ID:           e.ID,
			Title:        e.Title,
			DateTime:     e.DateTime,
			EndDateTime:  e.EndDateTime,
			Venue:        e.Venue,
			Mode:         e.Mode,
			Tags:         e.Tags,
			UpvoteCount:  e.UpvoteCount,
			CommentCount: e.CommentCount,
		},
	}
	if e.Organization != nil {
		out.Event.Organization = &SavedOrganization{
			ID:   e.Organization.ID,
			Name: e.Organization.Name,
			Slug: e.Organization.Slug,
			Logo: e.Organization.LogoURL,
		}
	}
	return out
}
