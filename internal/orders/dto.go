package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/pkg/db/models"
	"github.com/biscenic/commerce-backend/pkg/enums"
	"github.com/biscenic/commerce-backend/pkg/types"
)

// OrderDTO is the API-facing shape of a stored order.
type OrderDTO struct {
	ID                   uuid.UUID           `json:"id"`
	CustomerName         string              `json:"customerName"`
	CustomerEmail        string              `json:"customerEmail"`
	CustomerPhone        string              `json:"customerPhone"`
	Shipping             types.ShippingInfo  `json:"shipping"`
	TotalAmount          decimal.Decimal     `json:"totalAmount"`
	Currency             enums.Currency      `json:"currency"`
	PaymentMethod        enums.PaymentMethod `json:"paymentMethod"`
	PaymentGateway       *string             `json:"paymentGateway,omitempty"`
	TransactionReference *string             `json:"transactionReference,omitempty"`
	Status               enums.OrderStatus   `json:"status"`
	Items                []OrderItemDTO      `json:"items"`
	CreatedAt            time.Time           `json:"createdAt"`
}

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Qty       int             `json:"qty"`
}

// CreateOrderInput is the payload for persisting a new order.
type CreateOrderInput struct {
	CustomerName         string
	CustomerEmail        string
	CustomerPhone        string
	Shipping             types.ShippingInfo
	TotalAmount          decimal.Decimal
	Currency             enums.Currency
	PaymentMethod        enums.PaymentMethod
	PaymentGateway       *string
	TransactionReference *string
	PaymentDetails       types.JSONMap
	Status               enums.OrderStatus
	Items                []OrderItemInput
}

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Qty       int
}

func toDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}
	return &OrderDTO{
		ID:                   order.ID,
		CustomerName:         order.CustomerName,
		CustomerEmail:        order.CustomerEmail,
		CustomerPhone:        order.CustomerPhone,
		Shipping:             order.ShippingInfo,
		TotalAmount:          order.TotalAmount,
		Currency:             order.Currency,
		PaymentMethod:        order.PaymentMethod,
		PaymentGateway:       order.PaymentGateway,
		TransactionReference: order.TransactionReference,
		Status:               order.Status,
		Items:                items,
		CreatedAt:            order.CreatedAt,
	}
}
