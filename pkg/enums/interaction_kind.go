package enums

import "fmt"

// InteractionKind distinguishes the toggle relations between principals and events.
type InteractionKind string

const (
	InteractionUpvote       InteractionKind = "upvote"
	InteractionCalendarSave InteractionKind = "calendar_save"
)

var validInteractionKinds = []InteractionKind{
	InteractionUpvote,
	InteractionCalendarSave,
}

// IsValid reports whether the value is a known InteractionKind.
func (k InteractionKind) IsValid() bool {
	for _, candidate := range validInteractionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// CounterColumn names the events column kept in lockstep with this kind, if any.
func (k InteractionKind) CounterColumn() string {
	if k == InteractionUpvote {
		return "upvote_count"
	}
	return ""
}

// ParseInteractionKind converts raw input into an InteractionKind.
func ParseInteractionKind(value string) (InteractionKind, error) {
	for _, candidate := range validInteractionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interaction kind %q", value)
}
