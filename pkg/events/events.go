package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event on the wire.
type Type string

const (
	TypeOrderCompleted Type = "order.completed"
)

// Envelope is the stable wire structure published to Pub/Sub.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    uuid.UUID       `json:"eventId"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderCompletedEvent signals that an order reached its terminal completed
// state. Consumers use it to advance the buyer's monthly standing.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	PartyID     uuid.UUID `json:"party_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewEnvelope wraps a payload in a versioned envelope with a fresh event id.
func NewEnvelope(eventType Type, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	return &Envelope{
		Version:    1,
		EventID:    uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// Decode parses a wire message into an envelope and validates the basics.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	if env.EventID == uuid.Nil {
		return nil, fmt.Errorf("event envelope missing event id")
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event envelope missing type")
	}
	return &env, nil
}

// DecodeOrderCompleted extracts the order-completed payload from an envelope.
func DecodeOrderCompleted(env *Envelope) (*OrderCompletedEvent, error) {
	if env.Type != TypeOrderCompleted {
		return nil, fmt.Errorf("unexpected event type %q", env.Type)
	}
	var payload OrderCompletedEvent
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
	}
	if payload.OrderID == uuid.Nil || payload.PartyID == uuid.Nil {
		return nil, fmt.Errorf("%s payload missing ids", env.Type)
	}
	return &payload, nil
}
