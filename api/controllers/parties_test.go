package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/internal/parties"
	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

func partyRouter(svc *parties.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/parties", PartyCreate(svc, nil))
	r.Get("/parties", PartyList(svc, nil))
	r.Get("/parties/{partyId}", PartyDetail(svc, nil))
	r.Get("/parties/{partyId}/tier", PartyTierView(svc, nil))
	r.Put("/parties/{partyId}/relationship-tier", PartySetRelationshipTier(svc, nil))
	r.Put("/parties/{partyId}/hybrid-override", PartySetHybridOverride(svc, nil))
	return r
}

func relationshipOnlyConfig(t *testing.T, store *pricing.Store) pricing.RelationshipTier {
	t.Helper()
	cfg := &pricing.TierConfig{
		ActiveModel: enums.PricingModelRelationship,
		RelationshipTiers: []pricing.RelationshipTier{
			{Name: "Partner", DiscountPercentage: decimal.NewFromInt(12)},
		},
	}
	stored, err := store.Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("seeding config: %v", err)
	}
	return stored.RelationshipTiers[0]
}

func TestPartyCreateReturnsCreated(t *testing.T) {
	svc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/parties", strings.NewReader(`{"name": "Mehta Textiles"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.Party `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Name != "Mehta Textiles" {
		t.Fatalf("unexpected name %q", envelope.Data.Name)
	}
}

func TestPartyCreateRejectsShortName(t *testing.T) {
	svc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/parties", strings.NewReader(`{"name": "x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPartyDetailUnknownPartyReturnsNotFound(t *testing.T) {
	svc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/parties/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPartyDetailRejectsMalformedID(t *testing.T) {
	svc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/parties/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPartyListRejectsOutOfRangeLimit(t *testing.T) {
	svc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/parties?limit=9999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPartyTierViewFallsBackToZeroDiscount(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Unassigned Traders"}
	store := newTestStore(t)
	relationshipOnlyConfig(t, store)
	svc := newTestPartyService(t, newMemPartyRepo(party), store)
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/parties/"+party.ID.String()+"/tier", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data parties.TierView `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Resolved {
		t.Fatalf("expected unresolved view")
	}
	if !envelope.Data.DiscountPercentage.IsZero() {
		t.Fatalf("expected zero discount got %s", envelope.Data.DiscountPercentage)
	}
}

func TestPartySetRelationshipTierRejectsUnknownTier(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	store := newTestStore(t)
	relationshipOnlyConfig(t, store)
	svc := newTestPartyService(t, newMemPartyRepo(party), store)
	router := partyRouter(svc)

	body := `{"tier_id": "` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/parties/"+party.ID.String()+"/relationship-tier", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPartySetRelationshipTierAssigns(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	store := newTestStore(t)
	tier := relationshipOnlyConfig(t, store)
	svc := newTestPartyService(t, newMemPartyRepo(party), store)
	router := partyRouter(svc)

	body := `{"tier_id": "` + tier.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/parties/"+party.ID.String()+"/relationship-tier", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.Party `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RelationshipTierID == nil || *envelope.Data.RelationshipTierID != tier.ID {
		t.Fatalf("expected relationship tier %s got %v", tier.ID, envelope.Data.RelationshipTierID)
	}
}

func TestPartySetHybridOverrideRequiresTierWhenEnabling(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	svc := newTestPartyService(t, newMemPartyRepo(party), newTestStore(t))
	router := partyRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/parties/"+party.ID.String()+"/hybrid-override", strings.NewReader(`{"override": true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
