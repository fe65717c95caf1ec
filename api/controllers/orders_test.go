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

	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

type stubOrdersService struct {
	order      *orders.OrderDTO
	list       []orders.OrderDTO
	err        error
	lastInput  orders.CreateOrderInput
	lastLimit  int
	lastOffset int
}

func (s *stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.lastInput = input
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) FindByReference(ctx context.Context, gateway, reference string) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) List(ctx context.Context, limit, offset int) ([]orders.OrderDTO, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	return s.list, s.err
}

func TestOrdersCreateSuccess(t *testing.T) {
	service := &stubOrdersService{order: &orders.OrderDTO{ID: uuid.New()}}
	handler := OrdersCreate(service, nil)

	body := `{
		"customerName": "Ada Obi",
		"customerEmail": "ada@example.com",
		"shipping": {"address": "12 Marina Rd", "city": "Lagos", "state": "Lagos"},
		"totalAmount": "90000",
		"paymentMethod": "cod",
		"items": [{"productId": "prod-2", "name": "Velvet Ottoman", "unitPrice": "45000", "qty": 2}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if service.lastInput.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected method: %s", service.lastInput.PaymentMethod)
	}
	if !service.lastInput.TotalAmount.Equal(decimal.NewFromInt(90000)) {
		t.Fatalf("unexpected total: %s", service.lastInput.TotalAmount)
	}
	if len(service.lastInput.Items) != 1 || service.lastInput.Items[0].Qty != 2 {
		t.Fatalf("unexpected items: %+v", service.lastInput.Items)
	}
}

func TestOrdersCreateRejectsEmptyItems(t *testing.T) {
	handler := OrdersCreate(&stubOrdersService{}, nil)

	body := `{
		"customerName": "Ada Obi",
		"shipping": {"address": "12 Marina Rd", "city": "Lagos", "state": "Lagos"},
		"totalAmount": "90000",
		"paymentMethod": "cod",
		"items": []
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrdersGetInvalidID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/orders/{orderId}", OrdersGet(&stubOrdersService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrdersGetNotFound(t *testing.T) {
	service := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	r := chi.NewRouter()
	r.Get("/api/v1/orders/{orderId}", OrdersGet(service, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrdersListForwardsPaging(t *testing.T) {
	service := &stubOrdersService{list: []orders.OrderDTO{}}
	handler := OrdersList(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&offset=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.lastLimit != 5 || service.lastOffset != 10 {
		t.Fatalf("paging not forwarded: limit=%d offset=%d", service.lastLimit, service.lastOffset)
	}

	var envelope struct {
		Data []orders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
