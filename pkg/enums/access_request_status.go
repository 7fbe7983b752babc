package enums

import "fmt"

// AccessRequestStatus tracks an organization join request. Approved and rejected are terminal.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestRejected AccessRequestStatus = "rejected"
)

var validAccessRequestStatuses = []AccessRequestStatus{
	AccessRequestPending,
	AccessRequestApproved,
	AccessRequestRejected,
}

// IsValid reports whether the value is a known AccessRequestStatus.
func (s AccessRequestStatus) IsValid() bool {
	for _, candidate := range validAccessRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s AccessRequestStatus) IsTerminal() bool {
	return s == AccessRequestApproved || s == AccessRequestRejected
}

// ParseAccessRequestStatus converts raw input into an AccessRequestStatus.
func ParseAccessRequestStatus(value string) (AccessRequestStatus, error) {
	for _, candidate := range validAccessRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access request status %q", value)
}
