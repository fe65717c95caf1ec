package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biscenic/commerce-backend/internal/cart"
	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/flutterwave"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/metrics"
)

type stubCartRepo struct {
	carts map[string]*cart.Cart
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[string]*cart.Cart{}}
}

func (s *stubCartRepo) Find(_ context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := s.carts[sessionID]; ok {
		return c, nil
	}
	return nil, nil
}

func (s *stubCartRepo) Save(_ context.Context, c *cart.Cart) error {
	s.carts[c.SessionID] = c
	return nil
}

func (s *stubCartRepo) Delete(_ context.Context, sessionID string) error {
	delete(s.carts, sessionID)
	return nil
}

type stubGateway struct {
	initURL      string
	initErr      error
	initCalls    int
	verifyResult *flutterwave.VerificationResult
	verifyErr    error
	verifyCalls  int
}

func (s *stubGateway) Initialize(_ context.Context, _ flutterwave.InitializeInput) (string, error) {
	s.initCalls++
	if s.initErr != nil {
		return "", s.initErr
	}
	return s.initURL, nil
}

func (s *stubGateway) Verify(_ context.Context, txRef string) (*flutterwave.VerificationResult, error) {
	s.verifyCalls++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	result := *s.verifyResult
	result.Reference = txRef
	return &result, nil
}

type stubOrderWriter struct {
	created   []orders.CreateOrderInput
	createErr error
	existing  map[string]*orders.OrderDTO
	nextID    uuid.UUID
}

func newStubOrderWriter() *stubOrderWriter {
	return &stubOrderWriter{existing: map[string]*orders.OrderDTO{}, nextID: uuid.New()}
}

func (s *stubOrderWriter) Create(_ context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	dto := &orders.OrderDTO{
		ID:            s.nextID,
		TotalAmount:   input.TotalAmount,
		PaymentMethod: input.PaymentMethod,
		Status:        input.Status,
	}
	if input.TransactionReference != nil {
		s.existing[*input.TransactionReference] = dto
	}
	return dto, nil
}

func (s *stubOrderWriter) FindByReference(_ context.Context, _, reference string) (*orders.OrderDTO, error) {
	if dto, ok := s.existing[reference]; ok {
		return dto, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

type stubLocks struct {
	held map[string]bool
	deny bool
}

func newStubLocks() *stubLocks {
	return &stubLocks{held: map[string]bool{}}
}

func (s *stubLocks) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.deny || s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *stubLocks) FinalizeLockKey(reference string) string {
	return "finalize:" + reference
}

type finalizerFixture struct {
	svc      Finalizer
	sessions *stubStore
	carts    *stubCartRepo
	orders   *stubOrderWriter
	gateway  *stubGateway
	locks    *stubLocks
	registry *prometheus.Registry
}

func newFinalizerFixture(t *testing.T) *finalizerFixture {
	t.Helper()
	f := &finalizerFixture{
		sessions: newStubStore(),
		carts:    newStubCartRepo(),
		orders:   newStubOrderWriter(),
		gateway:  &stubGateway{initURL: "https://pay.example.com/abc"},
		locks:    newStubLocks(),
		registry: prometheus.NewRegistry(),
	}
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewFinalizer(
		f.sessions, f.carts, f.orders, f.gateway, f.locks,
		config.StorefrontConfig{
			BaseURL:    "https://shop.example.com",
			SuccessURL: "/order-success",
			ErrorURL:   "/order-error",
			ReturnURL:  "https://shop.example.com/api/v1/checkout/return",
			Currency:   "NGN",
		},
		config.CheckoutConfig{FinalizeLockTTL: 10 * time.Minute, TransactionPrefix: "BSC"},
		metrics.NewCheckoutMetrics(f.registry),
		logg,
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// counterValue reads one labeled counter off the fixture registry, 0 when the
// series was never incremented.
func (f *finalizerFixture) counterValue(t *testing.T, name, labelValue string) float64 {
	t.Helper()
	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func (f *finalizerFixture) seedReadySession(method enums.PaymentMethod) {
	f.sessions.sessions["sess-1"] = &Session{
		SessionID:     "sess-1",
		Step:          enums.StepSummary,
		Customer:      completeCustomer(),
		Shipping:      completeShipping(),
		PaymentMethod: method,
	}
	f.carts.carts["sess-1"] = cartWithOneItem("sess-1")
}

func TestPlaceCODOrderClearsCartAndSession(t *testing.T) {
	f := newFinalizerFixture(t)
	f.seedReadySession(enums.PaymentMethodCOD)

	order, err := f.svc.PlaceCODOrder(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodCOD, order.PaymentMethod)

	require.Len(t, f.orders.created, 1)
	assert.Nil(t, f.orders.created[0].TransactionReference)
	assert.NotContains(t, f.carts.carts, "sess-1", "cart cleared after acknowledged write")
	assert.NotContains(t, f.sessions.sessions, "sess-1", "checkout state cleared after acknowledged write")
}

func TestPlaceCODOrderKeepsCartWhenWriteFails(t *testing.T) {
	f := newFinalizerFixture(t)
	f.seedReadySession(enums.PaymentMethodCOD)
	f.orders.createErr = errors.New("db down")

	_, err := f.svc.PlaceCODOrder(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, f.carts.carts, "sess-1", "cart kept when order write fails")
}

func TestPlaceCODOrderRequiresCompleteCheckout(t *testing.T) {
	f := newFinalizerFixture(t)
	f.sessions.sessions["sess-1"] = &Session{
		SessionID:     "sess-1",
		Step:          enums.StepSummary,
		PaymentMethod: enums.PaymentMethodCOD,
	}
	f.carts.carts["sess-1"] = cartWithOneItem("sess-1")

	_, err := f.svc.PlaceCODOrder(context.Background(), "sess-1")
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}

func TestStartGatewayPaymentWritesSnapshotBeforeReturningURL(t *testing.T) {
	f := newFinalizerFixture(t)
	f.seedReadySession(enums.PaymentMethodFlutterwave)

	payment, err := f.svc.StartGatewayPayment(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/abc", payment.AuthorizationURL)

	session := f.sessions.sessions["sess-1"]
	require.True(t, session.HasPendingPayment())
	assert.Equal(t, payment.TxRef, session.PendingPayment.TxRef)
	assert.True(t, session.PendingPayment.Amount.Equal(decimal.NewFromInt(450000)))
	assert.Len(t, session.PendingPayment.Items, 1)
}

func TestStartGatewayPaymentRollsBackSnapshotWhenInitializeFails(t *testing.T) {
	f := newFinalizerFixture(t)
	f.seedReadySession(enums.PaymentMethodFlutterwave)
	f.gateway.initErr = errors.New("gateway down")

	_, err := f.svc.StartGatewayPayment(context.Background(), "sess-1")
	require.Error(t, err)
	assert.False(t, f.sessions.sessions["sess-1"].HasPendingPayment())
}

func TestStartGatewayPaymentRejectedWhileAnotherPending(t *testing.T) {
	f := newFinalizerFixture(t)
	f.seedReadySession(enums.PaymentMethodFlutterwave)

	_, err := f.svc.StartGatewayPayment(context.Background(), "sess-1")
	require.NoError(t, err)

	_, err = f.svc.StartGatewayPayment(context.Background(), "sess-1")
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}

func startedPayment(t *testing.T, f *finalizerFixture) string {
	t.Helper()
	f.seedReadySession(enums.PaymentMethodFlutterwave)
	payment, err := f.svc.StartGatewayPayment(context.Background(), "sess-1")
	require.NoError(t, err)
	return payment.TxRef
}

func TestHandleGatewayReturnSuccessCreatesOrderFromSnapshot(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)

	// cart mutated after the redirect must not change the charged amount
	f.carts.carts["sess-1"].Items[0].Qty = 99

	f.gateway.verifyResult = &flutterwave.VerificationResult{
		Status:   enums.PaymentStatusSuccessful,
		Amount:   decimal.NewFromInt(450000),
		Currency: "NGN",
	}

	outcome, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	require.NoError(t, err)
	require.True(t, outcome.Succeeded)
	require.NotNil(t, outcome.OrderID)
	assert.Contains(t, outcome.RedirectURL, "/order-success?orderId=")

	require.Len(t, f.orders.created, 1)
	created := f.orders.created[0]
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(450000)), "amount from snapshot, not live cart")
	assert.Equal(t, 1, created.Items[0].Qty)
	require.NotNil(t, created.TransactionReference)
	assert.Equal(t, txRef, *created.TransactionReference)
	assert.Equal(t, enums.OrderStatusPaid, created.Status)

	assert.NotContains(t, f.carts.carts, "sess-1")
	assert.Equal(t, 1, f.gateway.verifyCalls)
}

func TestHandleGatewayReturnRejectsNonSuccessStatusWithoutVerifying(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)

	outcome, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "cancelled")
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Contains(t, outcome.RedirectURL, "/order-error")
	assert.Equal(t, 0, f.gateway.verifyCalls, "verify is never called without a successful redirect status")
	assert.False(t, f.sessions.sessions["sess-1"].HasPendingPayment(), "pending snapshot cleared on failure")
	assert.Contains(t, f.carts.carts, "sess-1", "cart kept when no order was created")

	assert.Equal(t, 1.0, f.counterValue(t, "gateway_returns_rejected_total", "cancelled"))
	assert.Equal(t, 0.0, f.counterValue(t, "payment_verifications_total", "cancelled"),
		"redirect status must not count as a verification outcome")
}

func TestHandleGatewayReturnRejectsEmptyReference(t *testing.T) {
	f := newFinalizerFixture(t)
	startedPayment(t, f)

	outcome, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", "", "successful")
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 0, f.gateway.verifyCalls)
}

func TestHandleGatewayReturnReplayResolvesToOriginalOrder(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)
	f.gateway.verifyResult = &flutterwave.VerificationResult{
		Status: enums.PaymentStatusSuccessful,
		Amount: decimal.NewFromInt(450000),
	}

	first, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	require.NoError(t, err)

	replay, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	require.NoError(t, err)
	assert.Equal(t, *first.OrderID, *replay.OrderID)
	assert.Equal(t, 1, f.gateway.verifyCalls, "replay must not verify again")
	assert.Len(t, f.orders.created, 1, "replay must not create a second order")
}

func TestHandleGatewayReturnFailedVerificationClearsPending(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)
	f.gateway.verifyResult = &flutterwave.VerificationResult{
		Status: enums.PaymentStatusFailed,
	}

	outcome, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Empty(t, f.orders.created)
	assert.False(t, f.sessions.sessions["sess-1"].HasPendingPayment())
	assert.Equal(t, enums.StepPayment, f.sessions.sessions["sess-1"].Step)
}

func TestHandleGatewayReturnAmountBelowSnapshotFails(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)
	f.gateway.verifyResult = &flutterwave.VerificationResult{
		Status: enums.PaymentStatusSuccessful,
		Amount: decimal.NewFromInt(1000),
	}

	outcome, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Empty(t, f.orders.created)
}

func TestHandleGatewayReturnOrderWriteFailureIsOrderNotSaved(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)
	f.gateway.verifyResult = &flutterwave.VerificationResult{
		Status: enums.PaymentStatusSuccessful,
		Amount: decimal.NewFromInt(450000),
	}
	f.orders.createErr = errors.New("db down")

	_, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeOrderNotSaved, coded.Code())
	assert.Contains(t, f.carts.carts, "sess-1", "cart kept when order write failed")
}

func TestHandleGatewayReturnLockedTransactionConflicts(t *testing.T) {
	f := newFinalizerFixture(t)
	txRef := startedPayment(t, f)
	f.locks.deny = true

	_, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", txRef, "successful")
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
	assert.Equal(t, 0, f.gateway.verifyCalls)
}

func TestHandleGatewayReturnUnknownReferenceConflicts(t *testing.T) {
	f := newFinalizerFixture(t)
	startedPayment(t, f)

	_, err := f.svc.HandleGatewayReturn(context.Background(), "sess-1", "BSC-other", "successful")
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}
