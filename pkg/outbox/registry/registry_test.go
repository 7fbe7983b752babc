package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := NewEventRegistry("domain-topic")

	eventID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventEventPublished,
		AggregateType: enums.AggregateEvent,
		AggregateID:   eventID,
		Payload: mustEnvelope(t, payloads.EventPublishedEvent{
			EventID:          eventID,
			OrganizationID:   uuid.New(),
			AuthorID:         uuid.New(),
			Title:            "Hackathon",
			OrganizationName: "Programming Club",
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "domain-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.EventPublishedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.EventID != eventID || payload.Title != "Hackathon" {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatal("expected envelope event id")
	}
}

func TestEventRegistryResolveNonRetryable(t *testing.T) {
	reg := NewEventRegistry("")

	cases := map[string]models.OutboxEvent{
		"unknown type": {
			EventType:     enums.OutboxEventType("poll.closed"),
			AggregateType: enums.AggregateEvent,
			AggregateID:   uuid.New(),
		},
		"aggregate mismatch": {
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateEvent,
			AggregateID:   uuid.New(),
		},
		"missing aggregate id": {
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateAccessRequest,
		},
		"bad envelope": {
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateAccessRequest,
			AggregateID:   uuid.New(),
			Payload:       "{",
		},
		"null data": {
			EventType:     enums.EventAccessRequestFiled,
			AggregateType: enums.AggregateAccessRequest,
			AggregateID:   uuid.New(),
			Payload:       `{"version":1,"eventId":"x","data":null}`,
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %v", err)
			}
		})
	}
}

func mustEnvelope(t *testing.T, data any) string {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(env)
}

func TestIsNonRetryableSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("relay: %w", NewNonRetryableError(errors.New("bad payload")))
	if !IsNonRetryable(wrapped) {
		t.Fatal("expected wrapped non-retryable error to be detected")
	}
	if IsNonRetryable(errors.New("timeout")) {
		t.Fatal("plain errors are retryable")
	}
}
