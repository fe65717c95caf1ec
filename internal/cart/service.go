package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

// paymentFreeze reports whether the session has a gateway payment in flight.
// While one is pending the cart snapshot backs the payment amount, so
// mutations are rejected.
type paymentFreeze interface {
	PaymentPending(ctx context.Context, sessionID string) (bool, error)
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error)
	SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	repo   Repository
	freeze paymentFreeze
}

// NewService builds a cart service backed by the provided repository. The
// freeze guard is consulted before every mutation.
func NewService(repo Repository, freeze paymentFreeze) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if freeze == nil {
		return nil, fmt.Errorf("payment freeze guard required")
	}
	return &service{repo: repo, freeze: freeze}, nil
}

// AddItemInput carries the payload to add a product line to the cart.
type AddItemInput struct {
	ProductID    string
	Name         string
	Price        decimal.Decimal
	Qty          int
	ThumbnailURL string
}

// Get returns the session's cart, creating an empty one in memory when none
// is stored yet.
func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	cart, err := s.repo.Find(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		cart = &Cart{SessionID: sessionID, Items: []LineItem{}}
	}
	return cart, nil
}

// AddItem appends a line or, when the product is already present, adds the
// quantity onto the existing line. The stored unit price of an existing line
// wins over the incoming one.
func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	cart, err := s.mutableCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == input.ProductID {
			cart.Items[i].Qty += input.Qty
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, LineItem{
			ProductID:    input.ProductID,
			Name:         input.Name,
			Price:        input.Price,
			Qty:          input.Qty,
			ThumbnailURL: input.ThumbnailURL,
		})
	}

	return s.persist(ctx, cart)
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes
// the line. Unknown products are a no-op.
func (s *service) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	cart, err := s.mutableCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		cart.Items = removeLine(cart.Items, productID)
		return s.persist(ctx, cart)
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Qty = qty
			break
		}
	}
	return s.persist(ctx, cart)
}

// RemoveItem drops a line from the cart. Removing an absent product is a
// no-op.
func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	cart, err := s.mutableCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Items = removeLine(cart.Items, productID)
	return s.persist(ctx, cart)
}

// Clear deletes the session's cart entirely.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.guardMutation(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) mutableCart(ctx context.Context, sessionID string) (*Cart, error) {
	if err := s.guardMutation(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

func (s *service) guardMutation(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	pending, err := s.freeze.PaymentPending(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payment")
	}
	if pending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is locked while a payment is pending")
	}
	return nil
}

func (s *service) persist(ctx context.Context, cart *Cart) (*Cart, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return cart, nil
}

func removeLine(items []LineItem, productID string) []LineItem {
	filtered := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
