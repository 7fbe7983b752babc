package enums

import "fmt"

// EventMode describes how attendees join an event.
type EventMode string

const (
	EventModeOffline EventMode = "offline"
	EventModeOnline  EventMode = "online"
	EventModeHybrid  EventMode = "hybrid"
)

var validEventModes = []EventMode{EventModeOffline, EventModeOnline, EventModeHybrid}

// IsValid reports whether the value is a known EventMode.
func (m EventMode) IsValid() bool {
	for _, candidate := range validEventModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseEventMode converts raw input into an EventMode, defaulting blank input to offline.
func ParseEventMode(value string) (EventMode, error) {
	if value == "" {
		return EventModeOffline, nil
	}
	for _, candidate := range validEventModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event mode %q", value)
}

// OrganizationType categorizes campus organizations.
type OrganizationType string

const (
	OrganizationTypeClub       OrganizationType = "club"
	OrganizationTypeSociety    OrganizationType = "society"
	OrganizationTypeFest       OrganizationType = "fest"
	OrganizationTypeDepartment OrganizationType = "department"
	OrganizationTypeCouncil    OrganizationType = "council"
	OrganizationTypeOther      OrganizationType = "other"
)

var validOrganizationTypes = []OrganizationType{
	OrganizationTypeClub,
	OrganizationTypeSociety,
	OrganizationTypeFest,
	OrganizationTypeDepartment,
	OrganizationTypeCouncil,
	OrganizationTypeOther,
}

// IsValid reports whether the value is a known OrganizationType.
func (o OrganizationType) IsValid() bool {
	for _, candidate := range validOrganizationTypes {
		if candidate == o {
			return true
		}
	}
	return false
}
