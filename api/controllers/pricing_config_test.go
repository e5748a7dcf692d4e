package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func putConfig(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/pricing/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPricingConfigFetchReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	handler := PricingConfigFetch(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/config", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data pricingConfigPayload `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Version != 0 {
		t.Fatalf("expected version 0 got %d", envelope.Data.Version)
	}
	if len(envelope.Data.VolumeTiers) == 0 || len(envelope.Data.RelationshipTiers) == 0 {
		t.Fatalf("expected default tiers, got %+v", envelope.Data)
	}
}

func TestPricingConfigUpdatePersistsAndBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	update := PricingConfigUpdate(store, nil)

	body := `{
		"active_model": "volume",
		"volume_tiers": [
			{"name": "Base", "min_monthly_orders": 0, "max_monthly_orders": 9, "discount_percentage": "0"},
			{"name": "Bulk", "min_monthly_orders": 10, "max_monthly_orders": null, "discount_percentage": "7.5"}
		],
		"relationship_tiers": [],
		"version": 0
	}`

	rec := putConfig(t, update, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data pricingConfigPayload `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Version != 1 {
		t.Fatalf("expected version 1 got %d", envelope.Data.Version)
	}
	if len(envelope.Data.VolumeTiers) != 2 {
		t.Fatalf("expected 2 volume tiers got %d", len(envelope.Data.VolumeTiers))
	}
	for _, tier := range envelope.Data.VolumeTiers {
		if tier.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Fatalf("expected tier ids to be assigned on save")
		}
	}
}

func TestPricingConfigUpdateStaleVersionConflicts(t *testing.T) {
	store := newTestStore(t)
	update := PricingConfigUpdate(store, nil)

	body := `{
		"active_model": "volume",
		"volume_tiers": [
			{"name": "All", "min_monthly_orders": 0, "max_monthly_orders": null, "discount_percentage": "5"}
		],
		"relationship_tiers": [],
		"version": 0
	}`

	if rec := putConfig(t, update, body); rec.Code != http.StatusOK {
		t.Fatalf("seed save failed: %d %s", rec.Code, rec.Body.String())
	}

	// Replaying the same payload carries the now-stale version 0.
	rec := putConfig(t, update, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestPricingConfigUpdateRejectsUnknownModel(t *testing.T) {
	store := newTestStore(t)
	update := PricingConfigUpdate(store, nil)

	rec := putConfig(t, update, `{"active_model": "loyalty", "volume_tiers": [], "relationship_tiers": [], "version": 0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPricingConfigUpdateRejectsOverlappingRanges(t *testing.T) {
	store := newTestStore(t)
	update := PricingConfigUpdate(store, nil)

	body := `{
		"active_model": "volume",
		"volume_tiers": [
			{"name": "A", "min_monthly_orders": 0, "max_monthly_orders": 10, "discount_percentage": "0"},
			{"name": "B", "min_monthly_orders": 10, "max_monthly_orders": null, "discount_percentage": "5"}
		],
		"relationship_tiers": [],
		"version": 0
	}`

	rec := putConfig(t, update, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPricingConfigUpdateRejectsUnknownFields(t *testing.T) {
	store := newTestStore(t)
	update := PricingConfigUpdate(store, nil)

	rec := putConfig(t, update, `{"active_model": "volume", "surprise": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
