package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/internal/cart"
	"github.com/biscenic/commerce-backend/pkg/enums"
	"github.com/biscenic/commerce-backend/pkg/types"
)

// Session is the server-held checkout state for one anonymous session. It
// lives in Redis so it survives the redirect to the payment gateway and back.
type Session struct {
	SessionID      string              `json:"sessionId"`
	Step           enums.CheckoutStep  `json:"step"`
	Customer       types.CustomerInfo  `json:"customer"`
	Shipping       types.ShippingInfo  `json:"shipping"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod,omitempty"`
	PendingPayment *PendingPayment     `json:"pendingPayment,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// PendingPayment freezes everything the order will be built from before the
// browser leaves for the gateway. Amounts and items always come from this
// snapshot, never from the live cart.
type PendingPayment struct {
	TxRef         string              `json:"txRef"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	Items         []cart.LineItem     `json:"items"`
	Customer      types.CustomerInfo  `json:"customer"`
	Shipping      types.ShippingInfo  `json:"shipping"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// NewSession returns a fresh checkout session starting at the cart step.
func NewSession(sessionID string) *Session {
	return &Session{
		SessionID: sessionID,
		Step:      enums.StepCart,
		UpdatedAt: time.Now().UTC(),
	}
}

// HasPendingPayment reports whether a gateway payment is in flight.
func (s *Session) HasPendingPayment() bool {
	return s != nil && s.PendingPayment != nil
}
