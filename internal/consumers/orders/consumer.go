package orders

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/events"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

const consumerName = "orders-worker"

type partyUpdater interface {
	OnOrderCompleted(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer advances party standing from order-completed events while honoring
// Redis idempotency.
type Consumer struct {
	parties      partyUpdater
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(parties partyUpdater, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if parties == nil {
		return nil, errors.New("party service is required")
	}
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		parties:      parties,
		subscription: subscription,
		manager:      manager,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.Data, msg.ID)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, data []byte, messageID string) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", messageID)

	env, err := events.Decode(data)
	if err != nil {
		// Malformed messages never become valid; drop them.
		c.logg.Error(logCtx, "failed to decode event envelope", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":   env.EventID.String(),
		"event_type": string(env.Type),
	})

	if env.Type != events.TypeOrderCompleted {
		c.logg.Info(logCtx, "event not handled by orders consumer")
		return processResult{ack: true}
	}

	payload, err := events.DecodeOrderCompleted(env)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode order-completed payload", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID.String())
	logCtx = c.logg.WithPartyID(logCtx, payload.PartyID.String())

	// Idempotency is keyed on the order id rather than the event id so a
	// republished completion for the same order can never double-count.
	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, payload.OrderID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "order completion already processed")
		return processResult{ack: true}
	}

	if _, err := c.parties.OnOrderCompleted(ctx, payload.PartyID); err != nil {
		c.logg.Error(logCtx, "advancing party standing failed", err)
		_ = c.manager.Delete(ctx, consumerName, payload.OrderID)
		if isTransientError(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "party standing advanced")
	return processResult{ack: true}
}

func isTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if typed := pkgerrors.As(err); typed != nil {
		// Missing parties will stay missing; everything else may be a
		// database or dependency blip worth retrying.
		return typed.Code() != pkgerrors.CodeNotFound && typed.Code() != pkgerrors.CodeValidation
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
