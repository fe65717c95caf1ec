package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/internal/cart"
	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/flutterwave"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/metrics"
	"github.com/biscenic/commerce-backend/pkg/types"
)

const gatewayName = "flutterwave"

type gateway interface {
	Initialize(ctx context.Context, input flutterwave.InitializeInput) (string, error)
	Verify(ctx context.Context, txRef string) (*flutterwave.VerificationResult, error)
}

type orderWriter interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error)
	FindByReference(ctx context.Context, gateway, reference string) (*orders.OrderDTO, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	FinalizeLockKey(reference string) string
}

// Finalizer turns a completed checkout into a durable order. The COD path
// submits directly; the gateway path suspends at the redirect and resumes in
// HandleGatewayReturn.
type Finalizer interface {
	PlaceCODOrder(ctx context.Context, sessionID string) (*orders.OrderDTO, error)
	StartGatewayPayment(ctx context.Context, sessionID string) (*GatewayPayment, error)
	HandleGatewayReturn(ctx context.Context, sessionID, txRef, status string) (*ReturnOutcome, error)
}

// GatewayPayment is the hand-off to the browser for a hosted payment.
type GatewayPayment struct {
	AuthorizationURL string `json:"authorization_url"`
	TxRef            string `json:"tx_ref"`
}

// ReturnOutcome tells the return handler where to send the browser.
type ReturnOutcome struct {
	OrderID     *uuid.UUID
	RedirectURL string
	Succeeded   bool
}

type finalizer struct {
	sessions   Store
	carts      cart.Repository
	orders     orderWriter
	gateway    gateway
	locks      lockStore
	storefront config.StorefrontConfig
	checkout   config.CheckoutConfig
	metrics    *metrics.CheckoutMetrics
	logger     *logger.Logger
}

// NewFinalizer wires the finalization flow.
func NewFinalizer(
	sessions Store,
	carts cart.Repository,
	orderSvc orderWriter,
	gw gateway,
	locks lockStore,
	storefront config.StorefrontConfig,
	checkoutCfg config.CheckoutConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Finalizer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &finalizer{
		sessions:   sessions,
		carts:      carts,
		orders:     orderSvc,
		gateway:    gw,
		locks:      locks,
		storefront: storefront,
		checkout:   checkoutCfg,
		metrics:    checkoutMetrics,
		logger:     logg,
	}, nil
}

// PlaceCODOrder submits a cash-on-delivery order from the live cart. The cart
// is cleared only after the order write is acknowledged.
func (f *finalizer) PlaceCODOrder(ctx context.Context, sessionID string) (*orders.OrderDTO, error) {
	started := time.Now()
	session, currentCart, err := f.submittableState(ctx, sessionID, enums.PaymentMethodCOD)
	if err != nil {
		return nil, err
	}

	input := buildOrder(
		session.Customer, session.Shipping, currentCart.Items,
		currentCart.Subtotal(), enums.Currency(f.storefront.Currency),
		enums.PaymentMethodCOD, nil, nil, nil,
	)

	order, err := f.orders.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	f.settleSession(ctx, session.SessionID)
	f.metrics.IncOrderCreated(enums.PaymentMethodCOD.String())
	f.metrics.ObserveFinalizeDuration(enums.PaymentMethodCOD.String(), time.Since(started))
	f.logger.Info(f.logger.WithSessionID(ctx, sessionID), fmt.Sprintf("order %s placed (cod)", order.ID))
	return order, nil
}

// StartGatewayPayment snapshots the cart into the session and opens a hosted
// payment page. The snapshot is written before the authorization URL is
// handed out, so the return leg can rebuild the order even if the cart
// changes or the process restarts in between.
func (f *finalizer) StartGatewayPayment(ctx context.Context, sessionID string) (*GatewayPayment, error) {
	session, currentCart, err := f.submittableState(ctx, sessionID, enums.PaymentMethodFlutterwave)
	if err != nil {
		return nil, err
	}

	txRef := fmt.Sprintf("%s-%s", f.checkout.TransactionPrefix, uuid.NewString())
	session.PendingPayment = &PendingPayment{
		TxRef:         txRef,
		Amount:        currentCart.Subtotal(),
		Currency:      f.storefront.Currency,
		Items:         append([]cart.LineItem(nil), currentCart.Items...),
		Customer:      session.Customer,
		Shipping:      session.Shipping.Coalesced(),
		PaymentMethod: enums.PaymentMethodFlutterwave,
		CreatedAt:     time.Now().UTC(),
	}
	session.UpdatedAt = time.Now().UTC()
	if err := f.sessions.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending payment")
	}

	authURL, err := f.gateway.Initialize(ctx, flutterwave.InitializeInput{
		TxRef:       txRef,
		Amount:      session.PendingPayment.Amount,
		Currency:    session.PendingPayment.Currency,
		RedirectURL: f.storefront.ReturnURL,
		Email:       session.Customer.Email,
		Name:        session.Customer.Name,
		PhoneNumber: session.Customer.Phone,
	})
	if err != nil {
		// no payment page was opened, unfreeze the cart
		session.PendingPayment = nil
		if saveErr := f.sessions.Save(ctx, session); saveErr != nil {
			f.logger.Error(f.logger.WithTransactionRef(ctx, txRef), "rollback pending payment", saveErr)
		}
		return nil, err
	}

	f.logger.Info(f.logger.WithTransactionRef(f.logger.WithSessionID(ctx, sessionID), txRef), "gateway payment started")
	return &GatewayPayment{AuthorizationURL: authURL, TxRef: txRef}, nil
}

// HandleGatewayReturn resumes checkout when the browser comes back from the
// gateway. Verification runs at most once per transaction; replayed returns
// resolve to the order created the first time.
func (f *finalizer) HandleGatewayReturn(ctx context.Context, sessionID, txRef, status string) (*ReturnOutcome, error) {
	started := time.Now()
	ctx = f.logger.WithTransactionRef(f.logger.WithSessionID(ctx, sessionID), txRef)

	txRef = strings.TrimSpace(txRef)
	if txRef == "" || !strings.EqualFold(status, enums.PaymentStatusSuccessful.String()) {
		f.metrics.IncReturnRejected(normalizeStatus(status))
		f.clearPending(ctx, sessionID)
		f.logger.Warn(ctx, fmt.Sprintf("gateway return rejected (status=%q)", status))
		return f.failureOutcome("payment was not completed"), nil
	}

	// replayed return URL: hand back the order created the first time around
	existing, err := f.orders.FindByReference(ctx, gatewayName, txRef)
	if err == nil {
		return f.successOutcome(existing.ID), nil
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	session, err := f.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if !session.HasPendingPayment() || session.PendingPayment.TxRef != txRef {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending payment matches this transaction")
	}
	pending := session.PendingPayment

	acquired, err := f.locks.SetNX(ctx, f.locks.FinalizeLockKey(txRef), sessionID, f.checkout.FinalizeLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire finalize lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "finalization already in progress for this transaction")
	}

	result, err := f.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}
	f.metrics.IncVerification(normalizeStatus(result.Status.String()))

	if !result.Status.IsSuccessful() {
		f.clearPending(ctx, sessionID)
		f.logger.Warn(ctx, fmt.Sprintf("payment verification failed (status=%q)", result.Status))
		return f.failureOutcome("payment verification failed"), nil
	}
	if result.Amount.Cmp(pending.Amount) < 0 {
		f.clearPending(ctx, sessionID)
		f.logger.Warn(ctx, fmt.Sprintf("verified amount %s below expected %s", result.Amount, pending.Amount))
		return f.failureOutcome("payment amount mismatch"), nil
	}

	ref := txRef
	gw := gatewayName
	input := buildOrder(
		pending.Customer, pending.Shipping, pending.Items,
		pending.Amount, enums.Currency(pending.Currency),
		enums.PaymentMethodFlutterwave, &gw, &ref, result.Raw,
	)
	input.Status = enums.OrderStatusPaid

	order, err := f.orders.Create(ctx, input)
	if err != nil {
		// the shopper has been charged; this must surface as its own class
		f.logger.Error(ctx, "order write failed after successful payment", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderNotSaved, err, "save order for verified payment").
			WithDetails(map[string]any{"transaction_reference": txRef})
	}

	f.settleSession(ctx, sessionID)
	f.metrics.IncOrderCreated(enums.PaymentMethodFlutterwave.String())
	f.metrics.ObserveFinalizeDuration(enums.PaymentMethodFlutterwave.String(), time.Since(started))
	f.logger.Info(ctx, fmt.Sprintf("order %s placed (gateway)", order.ID))
	return f.successOutcome(order.ID), nil
}

// submittableState loads the session and cart and checks everything needed
// before an order can be built.
func (f *finalizer) submittableState(ctx context.Context, sessionID string, method enums.PaymentMethod) (*Session, *cart.Cart, error) {
	if sessionID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := f.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if session == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no checkout in progress")
	}
	if session.HasPendingPayment() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a payment is already pending for this session")
	}
	if session.PaymentMethod != method {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("selected payment method is not %s", method))
	}
	if !session.Customer.Complete() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer details are incomplete")
	}
	if !session.Shipping.Complete() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping details are incomplete")
	}

	currentCart, err := f.carts.Find(ctx, sessionID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if currentCart == nil || currentCart.IsEmpty() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	return session, currentCart, nil
}

// settleSession clears the cart and checkout state after an acknowledged
// order write. Failures here are logged, not surfaced: the order exists.
func (f *finalizer) settleSession(ctx context.Context, sessionID string) {
	if err := f.carts.Delete(ctx, sessionID); err != nil {
		f.logger.Error(ctx, "clear cart after order", err)
	}
	if err := f.sessions.Delete(ctx, sessionID); err != nil {
		f.logger.Error(ctx, "clear checkout session after order", err)
	}
}

func (f *finalizer) clearPending(ctx context.Context, sessionID string) {
	session, err := f.sessions.Find(ctx, sessionID)
	if err != nil || !session.HasPendingPayment() {
		return
	}
	session.PendingPayment = nil
	session.Step = enums.StepPayment
	session.UpdatedAt = time.Now().UTC()
	if err := f.sessions.Save(ctx, session); err != nil {
		f.logger.Error(ctx, "clear pending payment", err)
	}
}

func (f *finalizer) successOutcome(orderID uuid.UUID) *ReturnOutcome {
	return &ReturnOutcome{
		OrderID:     &orderID,
		RedirectURL: f.storefrontURL(f.storefront.SuccessURL, url.Values{"orderId": {orderID.String()}}),
		Succeeded:   true,
	}
}

func (f *finalizer) failureOutcome(reason string) *ReturnOutcome {
	return &ReturnOutcome{
		RedirectURL: f.storefrontURL(f.storefront.ErrorURL, url.Values{"reason": {reason}}),
	}
}

func (f *finalizer) storefrontURL(path string, query url.Values) string {
	base := strings.TrimRight(f.storefront.BaseURL, "/")
	out := base + path
	if len(query) > 0 {
		out += "?" + query.Encode()
	}
	return out
}

// buildOrder is the single constructor both payment paths funnel through.
func buildOrder(
	customer types.CustomerInfo,
	shipping types.ShippingInfo,
	items []cart.LineItem,
	total decimal.Decimal,
	currency enums.Currency,
	method enums.PaymentMethod,
	gatewayID *string,
	txRef *string,
	paymentDetails map[string]any,
) orders.CreateOrderInput {
	lines := make([]orders.OrderItemInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, orders.OrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Qty:       item.Qty,
		})
	}
	return orders.CreateOrderInput{
		CustomerName:         customer.Name,
		CustomerEmail:        customer.Email,
		CustomerPhone:        customer.Phone,
		Shipping:             shipping.Coalesced(),
		TotalAmount:          total,
		Currency:             currency,
		PaymentMethod:        method,
		PaymentGateway:       gatewayID,
		TransactionReference: txRef,
		PaymentDetails:       paymentDetails,
		Items:                lines,
	}
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "unknown"
	}
	return status
}
