package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/internal/orders"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

func orderRouter(svc *orders.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", OrderCreate(svc, nil))
	r.Get("/orders/{orderId}", OrderDetail(svc, nil))
	r.Post("/orders/{orderId}/complete", OrderComplete(svc, nil))
	return r
}

func TestOrderCreateSnapshotsDiscount(t *testing.T) {
	// 25 completed orders lands in the default Prime volume tier.
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles", MonthlyOrderCount: 25}
	partySvc := newTestPartyService(t, newMemPartyRepo(party), newTestStore(t))
	svc := newTestOrderService(t, newMemOrderRepo(), partySvc)
	router := orderRouter(svc)

	body := `{"party_id": "` + party.ID.String() + `", "total_amount": "1200.50"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.DiscountPercentage.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10%% discount got %s", envelope.Data.DiscountPercentage)
	}
}

func TestOrderCreateRejectsNegativeAmount(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	partySvc := newTestPartyService(t, newMemPartyRepo(party), newTestStore(t))
	svc := newTestOrderService(t, newMemOrderRepo(), partySvc)
	router := orderRouter(svc)

	body := `{"party_id": "` + party.ID.String() + `", "total_amount": "-5"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestOrderCompleteIsIdempotent(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	order := &models.Order{ID: uuid.New(), PartyID: party.ID, Status: enums.OrderStatusConfirmed, TotalAmount: decimal.NewFromInt(100)}
	partySvc := newTestPartyService(t, newMemPartyRepo(party), newTestStore(t))
	svc := newTestOrderService(t, newMemOrderRepo(order), partySvc)
	router := orderRouter(svc)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/complete", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}
}

func TestOrderCompleteUnknownOrderReturnsNotFound(t *testing.T) {
	partySvc := newTestPartyService(t, newMemPartyRepo(), newTestStore(t))
	svc := newTestOrderService(t, newMemOrderRepo(), partySvc)
	router := orderRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestOrderCompleteCanceledOrderRejected(t *testing.T) {
	party := &models.Party{ID: uuid.New(), Name: "Mehta Textiles"}
	order := &models.Order{ID: uuid.New(), PartyID: party.ID, Status: enums.OrderStatusCanceled, TotalAmount: decimal.NewFromInt(100)}
	partySvc := newTestPartyService(t, newMemPartyRepo(party), newTestStore(t))
	svc := newTestOrderService(t, newMemOrderRepo(order), partySvc)
	router := orderRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
	}
}
