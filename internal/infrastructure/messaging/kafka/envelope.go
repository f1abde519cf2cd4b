// Package kafka publishes and consumes scenario change events.  The API
// server emits an event whenever a scenario is created or edited; the worker
// consumes the stream to refresh embeddings and re-run duplicate detection.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// Envelope is the wire format for scenario events.  Payload carries the
// concrete event, discriminated by EventType.
type Envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// encodeEvent wraps a domain event in an envelope and serialises it.
func encodeEvent(e scenario.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	raw, err := json.Marshal(Envelope{
		EventID:     e.EventID(),
		EventType:   e.EventType(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return raw, nil
}

// DecodeEnvelope parses a consumed message value.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return env, nil
}

// ChangedEvent extracts the scenario change payload from an envelope.
func (e Envelope) ChangedEvent() (scenario.ChangedEvent, error) {
	var ev scenario.ChangedEvent
	if e.EventType != (scenario.ChangedEvent{}).EventType() {
		return ev, errors.Newf(errors.ErrCodeSerialization, "unexpected event type %q", e.EventType)
	}
	if err := json.Unmarshal(e.Payload, &ev); err != nil {
		return ev, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal scenario change event")
	}
	return ev, nil
}
