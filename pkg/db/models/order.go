package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/pkg/enums"
	"github.com/biscenic/commerce-backend/pkg/types"
)

// Order is the durable record produced by checkout finalization. The unique
// index on (payment_gateway, transaction_reference) is what makes replayed
// gateway returns idempotent.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName         string              `gorm:"column:customer_name;not null"`
	CustomerEmail        string              `gorm:"column:customer_email;not null"`
	CustomerPhone        string              `gorm:"column:customer_phone;not null"`
	ShippingInfo         types.ShippingInfo  `gorm:"column:shipping_info;type:jsonb;serializer:json"`
	TotalAmount          decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency             enums.Currency      `gorm:"column:currency;type:text;not null;default:'NGN'"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentGateway       *string             `gorm:"column:payment_gateway"`
	TransactionReference *string             `gorm:"column:transaction_reference;uniqueIndex:uq_orders_gateway_tx_ref,where:transaction_reference IS NOT NULL"`
	PaymentDetails       types.JSONMap       `gorm:"column:payment_details;type:jsonb;serializer:json"`
	Status               enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Items                []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
