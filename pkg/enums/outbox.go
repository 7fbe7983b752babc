package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateEvent         OutboxAggregateType = "event"
	AggregateAccessRequest OutboxAggregateType = "access_request"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvent,
	AggregateAccessRequest,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType names a domain transition recorded in the outbox.
type OutboxEventType string

const (
	EventEventPublished     OutboxEventType = "event.published"
	EventAccessRequestFiled OutboxEventType = "access_request.filed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEventPublished,
	EventAccessRequestFiled,
}

// IsValid reports whether the value matches a known outbox event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
