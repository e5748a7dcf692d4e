package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/threadlinehq/threadline-backend/pkg/events"
)

// EnvelopePublisher sends event envelopes to a single topic and blocks until
// the server acknowledges each message.
type EnvelopePublisher struct {
	publisher *pubsub.Publisher
}

// NewEnvelopePublisher wraps a topic publisher handle.
func NewEnvelopePublisher(publisher *pubsub.Publisher) (*EnvelopePublisher, error) {
	if publisher == nil {
		return nil, errors.New("publisher handle is required")
	}
	return &EnvelopePublisher{publisher: publisher}, nil
}

// Publish encodes the envelope and waits for the publish result.
func (p *EnvelopePublisher) Publish(ctx context.Context, env *events.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: raw,
		Attributes: map[string]string{
			"type":     string(env.Type),
			"event_id": env.EventID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing %s: %w", env.Type, err)
	}
	return nil
}
