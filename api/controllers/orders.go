package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/api/validators"
	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/types"
)

// OrdersCreate accepts a fully specified order. The storefront checkout goes
// through the finalizer instead; this endpoint serves back-office entry.
func OrdersCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrdersGet returns a single order by id.
func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrdersList pages through orders, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := validators.QueryInt(r, "limit", 0)
		offset := validators.QueryInt(r, "offset", 0)

		list, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type createOrderRequest struct {
	CustomerName         string             `json:"customerName" validate:"required"`
	CustomerEmail        string             `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone        string             `json:"customerPhone"`
	Shipping             types.ShippingInfo `json:"shipping" validate:"required"`
	TotalAmount          decimal.Decimal    `json:"totalAmount" validate:"required"`
	Currency             string             `json:"currency"`
	PaymentMethod        string             `json:"paymentMethod" validate:"required,oneof=flutterwave cod"`
	PaymentGateway       *string            `json:"paymentGateway"`
	TransactionReference *string            `json:"transactionReference"`
	Items                []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"required"`
	Qty       int             `json:"qty" validate:"required,min=1"`
}

func (r createOrderRequest) toInput() orders.CreateOrderInput {
	items := make([]orders.OrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orders.OrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}
	return orders.CreateOrderInput{
		CustomerName:         r.CustomerName,
		CustomerEmail:        r.CustomerEmail,
		CustomerPhone:        r.CustomerPhone,
		Shipping:             r.Shipping,
		TotalAmount:          r.TotalAmount,
		Currency:             enums.Currency(r.Currency),
		PaymentMethod:        enums.PaymentMethod(r.PaymentMethod),
		PaymentGateway:       r.PaymentGateway,
		TransactionReference: r.TransactionReference,
		Items:                items,
	}
}
