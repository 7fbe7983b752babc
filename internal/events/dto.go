package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/pagination"
)

// CreateEventRequest is the body accepted when publishing an event. Venue and
// location are aliases; one of them is required.
type CreateEventRequest struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      string     `json:"description" validate:"required,max=20000"`
	OrganizationID   uuid.UUID  `json:"organizationId"`
	DateTime         time.Time  `json:"dateTime" validate:"required"`
	EndDateTime      *time.Time `json:"endDateTime,omitempty"`
	Venue            string     `json:"venue" validate:"max=200"`
	Location         string     `json:"location" validate:"max=200"`
	Mode             string     `json:"mode" validate:"omitempty,oneof=offline online hybrid"`
	Tags             []string   `json:"tags" validate:"max=20,dive,max=40"`
	RegistrationLink *string    `json:"registrationLink,omitempty" validate:"omitempty,url,max=500"`
}

type OrganizationRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Logo *string   `json:"logo,omitempty"`
}

type AuthorRef struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
}

type EventDTO struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	OrganizationID   uuid.UUID        `json:"organizationId"`
	Organization     *OrganizationRef `json:"organization,omitempty"`
	Author           *AuthorRef       `json:"author,omitempty"`
	DateTime         time.Time        `json:"dateTime"`
	EndDateTime      *time.Time       `json:"endDateTime,omitempty"`
	Venue            string           `json:"venue"`
	Mode             enums.EventMode  `json:"mode"`
	Tags             []string         `json:"tags"`
	RegistrationLink *string          `json:"registrationLink,omitempty"`
	UpvoteCount      int              `json:"upvoteCount"`
	CommentCount     int              `json:"commentCount"`
	IsPublished      bool             `json:"isPublished"`
	HasUpvoted       bool             `json:"hasUpvoted"`
	HasCalendarSave  bool             `json:"hasCalendarSave"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// FeedResult is one page of the published feed.
type FeedResult struct {
	Data []EventDTO `json:"data"`
	pagination.Meta
}

func fromModel(e *models.Event) EventDTO {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	dto := EventDTO{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		OrganizationID:   e.OrganizationID,
		DateTime:         e.DateTime,
		EndDateTime:      e.EndDateTime,
		Venue:            e.Venue,
		Mode:             e.Mode,
		Tags:             tags,
		RegistrationLink: e.RegistrationLink,
		UpvoteCount:      e.UpvoteCount,
		CommentCount:     e.CommentCount,
		IsPublished:      e.IsPublished,
		CreatedAt:        e.CreatedAt,
	}
	if e.Organization != nil {
		dto.Organization = &OrganizationRef{
			ID:   e.Organization.ID,
			Name: e.Organization.Name,
			Slug: e.Organization.Slug,
			Logo: e.Organization.LogoURL,
		}
	}
	if e.Author != nil {
		dto.Author = &AuthorRef{
			ID:          e.Author.ID,
			DisplayName: e.Author.DisplayName,
			Avatar:      e.Author.AvatarURL,
		}
	}
	return dto
}
