package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/api/middleware"
	cartsvc "github.com/biscenic/commerce-backend/internal/cart"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

type stubCartService struct {
	cart         *cartsvc.Cart
	err          error
	lastAddInput cartsvc.AddItemInput
	lastItemID   string
	lastQty      int
	cleared      bool
}

func (s *stubCartService) Get(ctx context.Context, sessionID string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, sessionID string, input cartsvc.AddItemInput) (*cartsvc.Cart, error) {
	s.lastAddInput = input
	return s.cart, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*cartsvc.Cart, error) {
	s.lastItemID = productID
	s.lastQty = qty
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionID, productID string) (*cartsvc.Cart, error) {
	s.lastItemID = productID
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	s.cleared = true
	return s.err
}

func sampleCart(sessionID string) *cartsvc.Cart {
	return &cartsvc.Cart{
		SessionID: sessionID,
		Items: []cartsvc.LineItem{
			{ProductID: "prod-1", Name: "Teak Dining Table", Price: decimal.NewFromInt(450000), Qty: 1},
			{ProductID: "prod-2", Name: "Velvet Ottoman", Price: decimal.NewFromInt(45000), Qty: 2},
		},
		UpdatedAt: time.Now().UTC(),
	}
}

func withSession(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
}

func TestCartGetSuccess(t *testing.T) {
	service := &stubCartService{cart: sampleCart("sess-1")}
	handler := CartGet(service, nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess-1" {
		t.Fatalf("unexpected session id: %s", envelope.Data.SessionID)
	}
	if envelope.Data.ItemCount != 3 {
		t.Fatalf("expected itemCount 3 got %d", envelope.Data.ItemCount)
	}
	if !envelope.Data.Subtotal.Equal(decimal.NewFromInt(540000)) {
		t.Fatalf("unexpected subtotal: %s", envelope.Data.Subtotal)
	}
}

func TestCartGetMissingSessionContext(t *testing.T) {
	handler := CartGet(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	service := &stubCartService{cart: sampleCart("sess-1")}
	handler := CartAddItem(service, nil)

	body := `{"productId":"prod-9","name":"Rattan Chair","price":"120000","qty":2}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if service.lastAddInput.ProductID != "prod-9" || service.lastAddInput.Qty != 2 {
		t.Fatalf("unexpected add input: %+v", service.lastAddInput)
	}
	if !service.lastAddInput.Price.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("unexpected price: %s", service.lastAddInput.Price)
	}
}

func TestCartAddItemRejectsInvalidBody(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"productId":"prod-9"}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemRoutesItemID(t *testing.T) {
	service := &stubCartService{cart: sampleCart("sess-1")}

	r := chi.NewRouter()
	r.Patch("/api/v1/cart/items/{itemId}", CartUpdateItem(service, nil))

	body := `{"qty":0}`
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/prod-2", strings.NewReader(body)), "sess-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastItemID != "prod-2" || service.lastQty != 0 {
		t.Fatalf("unexpected update: id=%s qty=%d", service.lastItemID, service.lastQty)
	}
}

func TestCartClearSurfacesStateConflict(t *testing.T) {
	service := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is locked while a payment is pending")}
	handler := CartClear(service, nil)

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
