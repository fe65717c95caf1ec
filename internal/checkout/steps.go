package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/biscenic/commerce-backend/internal/cart"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/types"
)

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
}

// SessionService drives the five-step checkout flow. Steps only ever advance
// one at a time through Next; Previous and GoTo can move backward freely.
type SessionService interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	UpdateData(ctx context.Context, sessionID string, input UpdateDataInput) (*Session, error)
	Next(ctx context.Context, sessionID string) (*Session, error)
	Previous(ctx context.Context, sessionID string) (*Session, error)
	GoTo(ctx context.Context, sessionID string, step enums.CheckoutStep) (*Session, error)
	Reset(ctx context.Context, sessionID string) (*Session, error)
}

type sessionService struct {
	store Store
	carts cartReader
}

// NewSessionService builds the step controller backed by the provided store.
func NewSessionService(store Store, carts cartReader) (SessionService, error) {
	if store == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	return &sessionService{store: store, carts: carts}, nil
}

// UpdateDataInput carries a partial update of the checkout data. Nil fields
// are left untouched.
type UpdateDataInput struct {
	Customer      *types.CustomerInfo
	Shipping      *types.ShippingInfo
	PaymentMethod *enums.PaymentMethod
}

// Get returns the session's checkout state, creating it at the cart step on
// first touch.
func (s *sessionService) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	session, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if session == nil {
		session = NewSession(sessionID)
		if err := s.store.Save(ctx, session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init checkout session")
		}
	}
	return session, nil
}

// UpdateData merges the provided fields into the session. Updates are
// rejected while a gateway payment is pending.
func (s *sessionService) UpdateData(ctx context.Context, sessionID string, input UpdateDataInput) (*Session, error) {
	session, err := s.mutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if input.Customer != nil {
		session.Customer = *input.Customer
	}
	if input.Shipping != nil {
		session.Shipping = input.Shipping.Coalesced()
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		session.PaymentMethod = *input.PaymentMethod
	}

	return s.persist(ctx, session)
}

// Next advances one step after validating the current one. At the final step
// it is a no-op and returns the session unchanged.
func (s *sessionService) Next(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.mutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := session.Step.Index()
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stored checkout step is not recognized")
	}
	if idx >= len(enums.CheckoutSteps)-1 {
		return session, nil
	}
	if err := s.validateStep(ctx, session, session.Step); err != nil {
		return nil, err
	}

	session.Step = enums.CheckoutSteps[idx+1]
	return s.persist(ctx, session)
}

// Previous steps back without validation. At the first step it is a no-op and
// returns the session unchanged.
func (s *sessionService) Previous(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.mutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := session.Step.Index()
	if idx <= 0 {
		return session, nil
	}

	session.Step = enums.CheckoutSteps[idx-1]
	return s.persist(ctx, session)
}

// GoTo jumps to a step. Backward jumps are unconditional; forward jumps must
// pass validation of every step in between.
func (s *sessionService) GoTo(ctx context.Context, sessionID string, step enums.CheckoutStep) (*Session, error) {
	if !step.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout step")
	}

	session, err := s.mutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current := session.Step.Index()
	target := step.Index()
	for i := current; i < target; i++ {
		if err := s.validateStep(ctx, session, enums.CheckoutSteps[i]); err != nil {
			return nil, err
		}
	}

	session.Step = step
	return s.persist(ctx, session)
}

// Reset drops the whole checkout state, pending payment included, and starts
// over at the cart step.
func (s *sessionService) Reset(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset checkout session")
	}
	session := NewSession(sessionID)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init checkout session")
	}
	return session, nil
}

func (s *sessionService) mutableSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HasPendingPayment() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is locked while a payment is pending")
	}
	return session, nil
}

func (s *sessionService) validateStep(ctx context.Context, session *Session, step enums.CheckoutStep) error {
	switch step {
	case enums.StepCart:
		current, err := s.carts.Get(ctx, session.SessionID)
		if err != nil {
			return err
		}
		if current.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
	case enums.StepCustomerInfo:
		if !session.Customer.Complete() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer name, email and phone are required")
		}
	case enums.StepShipping:
		if !session.Shipping.Complete() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping address, city and state are required")
		}
	case enums.StepPayment:
		if !session.PaymentMethod.IsValid() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a payment method must be selected")
		}
	}
	return nil
}

func (s *sessionService) persist(ctx context.Context, session *Session) (*Session, error) {
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
	}
	return session, nil
}
