package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/internal/parties"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/events"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, env *events.Envelope) error
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Parties   *parties.Service
	Publisher EventPublisher
	Logger    *logger.Logger
}

// Service owns the thin order lifecycle the pricing engine depends on.
type Service struct {
	repo      Repository
	parties   *parties.Service
	publisher EventPublisher
	logg      *logger.Logger
}

// NewService builds an order service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Parties == nil {
		return nil, errors.New("parties service is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		repo:      params.Repo,
		parties:   params.Parties,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

// CreateOrderInput carries the fields accepted when placing an order.
type CreateOrderInput struct {
	PartyID     uuid.UUID       `json:"party_id" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount" validate:"required"`
}

// CreateOrder places an order and snapshots the party's current discount onto
// it. The discount comes from the effective-tier view, so a party in a broken
// pricing state still gets an order, just at zero discount.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}

	view, err := s.parties.EffectiveTierView(ctx, input.PartyID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		PartyID:            input.PartyID,
		Status:             enums.OrderStatusPending,
		TotalAmount:        input.TotalAmount,
		DiscountPercentage: view.DiscountPercentage,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return order, nil
}

// GetOrder fetches an order by id.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// Complete transitions the order to completed and emits the order-completed
// event that advances the buyer's monthly standing. Completing an already
// completed order is a no-op; completing a canceled order is rejected.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "canceled orders cannot be completed")
	}
	if order.Status == enums.OrderStatusCompleted {
		return order, nil
	}

	completedAt := time.Now().UTC()
	changed, err := s.repo.MarkCompleted(ctx, orderID, completedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing order")
	}
	if !changed {
		// Lost the race to another completion; report the current row.
		return s.repo.FindByID(ctx, orderID)
	}

	order.Status = enums.OrderStatusCompleted
	order.CompletedAt = &completedAt

	s.publishCompleted(ctx, order)
	return order, nil
}

// publishCompleted emits the event best-effort. The status transition has
// already committed, so a delivery failure is logged rather than unwinding
// the completion; the consumer keys idempotency on the order id, which keeps
// any later republish safe.
func (s *Service) publishCompleted(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}

	env, err := events.NewEnvelope(events.TypeOrderCompleted, events.OrderCompletedEvent{
		OrderID:     order.ID,
		PartyID:     order.PartyID,
		CompletedAt: *order.CompletedAt,
	})
	if err != nil {
		s.logg.Error(ctx, "encoding order-completed event", err)
		return
	}

	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logg.Error(ctx, "publishing order-completed event", err)
	}
}
