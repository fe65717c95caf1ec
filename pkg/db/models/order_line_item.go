package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem is one cart line snapshotted into an order at submission time.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID string          `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Qty       int             `gorm:"column:qty;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
