package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in a session's cart. Price is the unit price
// in major currency units at the time the item was added.
type LineItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
}

// Cart is the server-held cart snapshot for one anonymous session.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Subtotal sums price*qty over all items. Always recomputed from the lines,
// never stored.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return total
}

// ItemCount sums the quantities over all items.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Qty
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
