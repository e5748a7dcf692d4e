package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

type stubConfigRepo struct {
	row     *models.PricingTierConfig
	findErr error
	saveErr error
}

func (s *stubConfigRepo) Find(ctx context.Context) (*models.PricingTierConfig, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.row, nil
}

func (s *stubConfigRepo) Save(ctx context.Context, document json.RawMessage, expectedVersion int64) (*models.PricingTierConfig, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.row = &models.PricingTierConfig{
		ID:       models.PricingTierConfigRowID,
		Version:  expectedVersion + 1,
		Document: document,
	}
	return s.row, nil
}

func TestStoreLoadReturnsDefaultsWhenEmpty(t *testing.T) {
	store, err := NewStore(StoreParams{Repo: &stubConfigRepo{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActiveModel != enums.PricingModelHybrid {
		t.Fatalf("expected default hybrid model, got %s", cfg.ActiveModel)
	}
	if cfg.Version != 0 {
		t.Fatalf("defaults should carry version 0, got %d", cfg.Version)
	}
}

func TestStoreLoadObservesSavesFromAnotherStore(t *testing.T) {
	// The API, order worker and cron worker each build their own Store over
	// the same row. An administrator edit through one must reach the others
	// without a restart.
	repo := &stubConfigRepo{}
	apiStore, _ := NewStore(StoreParams{Repo: repo})
	workerStore, _ := NewStore(StoreParams{Repo: repo})

	if _, err := apiStore.Save(context.Background(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen, err := workerStore.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Version != 1 {
		t.Fatalf("expected version 1, got %d", seen.Version)
	}

	edited := *seen
	edited.ActiveModel = enums.PricingModelVolume
	if _, err := apiStore.Save(context.Background(), &edited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen, err = workerStore.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Version != 2 || seen.ActiveModel != enums.PricingModelVolume {
		t.Fatalf("expected the other store's save to be visible, got version %d model %s", seen.Version, seen.ActiveModel)
	}
}

func TestStoreLoadServesLastKnownConfigOnReadFailure(t *testing.T) {
	repo := &stubConfigRepo{}
	store, _ := NewStore(StoreParams{Repo: repo})

	if _, err := store.Save(context.Background(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.findErr = errors.New("connection refused")

	cfg, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("expected last known config, got error: %v", err)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1 snapshot, got %d", cfg.Version)
	}

	// Without a prior snapshot the failure surfaces.
	cold, _ := NewStore(StoreParams{Repo: repo})
	if _, err := cold.Load(context.Background()); err == nil {
		t.Fatal("expected error when no snapshot exists")
	}
}

func TestStoreSaveRoundTrip(t *testing.T) {
	repo := &stubConfigRepo{}
	store, _ := NewStore(StoreParams{Repo: repo})

	cfg := DefaultConfig()
	cfg.ActiveModel = enums.PricingModelVolume

	stored, err := store.Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1, got %d", stored.Version)
	}

	// save(load()) keeps every field intact.
	loaded, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := store.Save(context.Background(), loaded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.VolumeTiers) != len(cfg.VolumeTiers) || len(again.RelationshipTiers) != len(cfg.RelationshipTiers) {
		t.Fatalf("tier lists changed across round trip")
	}
	for i, tier := range again.VolumeTiers {
		orig := cfg.VolumeTiers[i]
		if tier.ID != orig.ID || tier.Name != orig.Name || tier.MinMonthlyOrders != orig.MinMonthlyOrders {
			t.Fatalf("volume tier %d changed across round trip: %+v vs %+v", i, tier, orig)
		}
		if !tier.DiscountPercentage.Equal(orig.DiscountPercentage) {
			t.Fatalf("volume tier %d discount changed across round trip", i)
		}
	}
	for i, tier := range again.RelationshipTiers {
		orig := cfg.RelationshipTiers[i]
		if tier.ID != orig.ID || tier.Name != orig.Name || len(tier.Benefits) != len(orig.Benefits) {
			t.Fatalf("relationship tier %d changed across round trip", i)
		}
	}
}

func TestStoreSaveRejectsInvalidConfigAndKeepsPrior(t *testing.T) {
	repo := &stubConfigRepo{}
	store, _ := NewStore(StoreParams{Repo: repo})

	valid := DefaultConfig()
	if _, err := store.Save(context.Background(), valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad, _ := store.Load(context.Background())
	invalid := *bad
	invalid.VolumeTiers = make([]VolumeTier, len(bad.VolumeTiers))
	copy(invalid.VolumeTiers, bad.VolumeTiers)
	invalid.VolumeTiers[0].MaxMonthlyOrders = intPtr(10)
	invalid.VolumeTiers[1].MinMonthlyOrders = 5

	if _, err := store.Save(context.Background(), &invalid); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}

	current, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Version != 1 {
		t.Fatalf("prior configuration should remain active, got version %d", current.Version)
	}
	if current.VolumeTiers[0].MaxMonthlyOrders == nil || *current.VolumeTiers[0].MaxMonthlyOrders != 4 {
		t.Fatalf("prior tier ranges should be untouched")
	}
}

func TestStoreSaveAssignsMissingTierIDs(t *testing.T) {
	repo := &stubConfigRepo{}
	store, _ := NewStore(StoreParams{Repo: repo})

	cfg := &TierConfig{
		ActiveModel: enums.PricingModelVolume,
		VolumeTiers: []VolumeTier{
			{Name: "Only", MinMonthlyOrders: 0, DiscountPercentage: decimal.Zero},
		},
	}

	stored, err := store.Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.VolumeTiers[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected an id to be assigned on save")
	}
}
