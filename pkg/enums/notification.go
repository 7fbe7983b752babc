package enums

import "fmt"

// NotificationType enumerates the notices a principal can receive.
type NotificationType string

const (
	NotificationTypeEventComment  NotificationType = "event_comment"
	NotificationTypeEventLike     NotificationType = "event_like"
	NotificationTypeNewOrgEvent   NotificationType = "new_org_event"
	NotificationTypeEventReminder NotificationType = "event_reminder"
	NotificationTypeAccessRequest NotificationType = "access_request"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeEventComment,
	NotificationTypeEventLike,
	NotificationTypeNewOrgEvent,
	NotificationTypeEventReminder,
	NotificationTypeAccessRequest,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
