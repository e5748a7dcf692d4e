package controllers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadlinehq/threadline-backend/internal/orders"
	"github.com/threadlinehq/threadline-backend/internal/parties"
	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/events"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
	"github.com/threadlinehq/threadline-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// memConfigRepo keeps the singleton document in memory with the same
// version-check semantics as the persisted row.
type memConfigRepo struct {
	row *models.PricingTierConfig
}

func (m *memConfigRepo) Find(ctx context.Context) (*models.PricingTierConfig, error) {
	return m.row, nil
}

func (m *memConfigRepo) Save(ctx context.Context, document json.RawMessage, expectedVersion int64) (*models.PricingTierConfig, error) {
	current := int64(0)
	if m.row != nil {
		current = m.row.Version
	}
	if expectedVersion != current {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "pricing configuration was modified concurrently")
	}
	m.row = &models.PricingTierConfig{
		ID:       models.PricingTierConfigRowID,
		Version:  expectedVersion + 1,
		Document: document,
	}
	return m.row, nil
}

func newTestStore(t *testing.T) *pricing.Store {
	t.Helper()
	store, err := pricing.NewStore(pricing.StoreParams{Repo: &memConfigRepo{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

type memPartyRepo struct {
	parties map[uuid.UUID]*models.Party
}

func newMemPartyRepo(rows ...*models.Party) *memPartyRepo {
	repo := &memPartyRepo{parties: map[uuid.UUID]*models.Party{}}
	for _, p := range rows {
		repo.parties[p.ID] = p
	}
	return repo
}

func (m *memPartyRepo) WithTx(tx *gorm.DB) parties.Repository { return m }

func (m *memPartyRepo) Create(ctx context.Context, party *models.Party) error {
	if party.ID == uuid.Nil {
		party.ID = uuid.New()
	}
	m.parties[party.ID] = party
	return nil
}

func (m *memPartyRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	party, ok := m.parties[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	copied := *party
	return &copied, nil
}

func (m *memPartyRepo) List(ctx context.Context, query parties.ListQuery) ([]models.Party, *pagination.Cursor, error) {
	rows := make([]models.Party, 0, len(m.parties))
	for _, p := range m.parties {
		rows = append(rows, *p)
	}
	return rows, nil, nil
}

func (m *memPartyRepo) IncrementMonthlyOrderCount(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	party, ok := m.parties[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	party.MonthlyOrderCount++
	copied := *party
	return &copied, nil
}

func (m *memPartyRepo) SetHybridAutoTier(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error {
	party, ok := m.parties[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	party.HybridAutoTierID = tierID
	return nil
}

func (m *memPartyRepo) SetRelationshipTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error {
	party, ok := m.parties[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	party.RelationshipTierID = &tierID
	return nil
}

func (m *memPartyRepo) SetVolumeTierOverride(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error {
	party, ok := m.parties[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	party.VolumeTierID = tierID
	return nil
}

func (m *memPartyRepo) SetHybridOverride(ctx context.Context, id uuid.UUID, override bool, tierID *uuid.UUID) error {
	party, ok := m.parties[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	party.HybridManualOverride = override
	party.HybridOverrideTierID = tierID
	return nil
}

func (m *memPartyRepo) ResetMonthlyCounts(ctx context.Context, autoTierID *uuid.UUID) (int64, error) {
	var n int64
	for _, p := range m.parties {
		p.MonthlyOrderCount = 0
		p.HybridAutoTierID = autoTierID
		n++
	}
	return n, nil
}

type memOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newMemOrderRepo(rows ...*models.Order) *memOrderRepo {
	repo := &memOrderRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range rows {
		repo.orders[o.ID] = o
	}
	return repo
}

func (m *memOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	copied := *order
	return &copied, nil
}

func (m *memOrderRepo) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	order, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if order.Status.IsTerminal() {
		return false, nil
	}
	order.Status = enums.OrderStatusCompleted
	order.CompletedAt = &completedAt
	return true, nil
}

type dropPublisher struct{}

func (dropPublisher) Publish(ctx context.Context, envelope *events.Envelope) error {
	return nil
}

func newTestPartyService(t *testing.T, repo parties.Repository, store *pricing.Store) *parties.Service {
	t.Helper()
	svc, err := parties.NewService(parties.ServiceParams{
		Repo:   repo,
		Config: store,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func newTestOrderService(t *testing.T, repo orders.Repository, partySvc *parties.Service) *orders.Service {
	t.Helper()
	svc, err := orders.NewService(orders.ServiceParams{
		Repo:      repo,
		Parties:   partySvc,
		Publisher: dropPublisher{},
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}
