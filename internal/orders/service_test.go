package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/biscenic/commerce-backend/pkg/db/models"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/types"
)

type stubRepo struct {
	createErr error
	created   []*models.Order
	byRef     map[string]*models.Order
	byID      map[uuid.UUID]*models.Order
	listed    []models.Order
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byRef: map[string]*models.Order{},
		byID:  map[uuid.UUID]*models.Order{},
	}
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = uuid.New()
	s.created = append(s.created, order)
	s.byID[order.ID] = order
	if order.TransactionReference != nil {
		s.byRef[*order.TransactionReference] = order
	}
	return order, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByTransactionReference(_ context.Context, _, reference string) (*models.Order, error) {
	if order, ok := s.byRef[reference]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(context.Context, int, int) ([]models.Order, error) {
	return s.listed, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:  "Ada Obi",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+2348012345678",
		Shipping:      types.ShippingInfo{Address: "12 Awolowo Rd", City: "Ikoyi", State: "Lagos"},
		TotalAmount:   decimal.NewFromInt(90000),
		PaymentMethod: enums.PaymentMethodCOD,
		Items: []OrderItemInput{
			{ProductID: "prod-1", Name: "Velvet Ottoman", UnitPrice: decimal.NewFromInt(45000), Qty: 2},
		},
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)
	return svc
}

func TestCreateOrderDefaultsAndMapping(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)

	dto, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, enums.CurrencyNGN, dto.Currency)
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 2, dto.Items[0].Qty)
	require.Len(t, repo.created, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(t, newStubRepo())
	ctx := context.Background()

	mutations := []func(*CreateOrderInput){
		func(in *CreateOrderInput) { in.CustomerEmail = "" },
		func(in *CreateOrderInput) { in.Shipping.City = "" },
		func(in *CreateOrderInput) { in.PaymentMethod = "wire" },
		func(in *CreateOrderInput) { in.Items = nil },
		func(in *CreateOrderInput) { in.TotalAmount = decimal.Zero },
		func(in *CreateOrderInput) { in.TotalAmount = decimal.NewFromInt(1) },
		func(in *CreateOrderInput) { in.Items[0].Qty = 0 },
	}

	for _, mutate := range mutations {
		input := validInput()
		mutate(&input)
		_, err := svc.Create(ctx, input)
		var coded *pkgerrors.Error
		require.ErrorAs(t, err, &coded)
		assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
	}
}

func TestCreateGatewayOrderRequiresReference(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodFlutterwave
	_, err := svc.Create(context.Background(), input)
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestCreateDuplicateReferenceReturnsExistingOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)

	ref := "BSC-abc"
	gw := "flutterwave"
	existing := &models.Order{
		ID:                   uuid.New(),
		TransactionReference: &ref,
		PaymentGateway:       &gw,
		TotalAmount:          decimal.NewFromInt(90000),
	}
	repo.byRef[ref] = existing
	repo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: txRefConstraint}

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodFlutterwave
	input.PaymentGateway = &gw
	input.TransactionReference = &ref

	dto, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, dto.ID)
}

func TestCreateOtherDBErrorIsDependency(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), validInput())
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
}

func TestGetUnknownOrderIsNotFound(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	_, err := svc.Get(context.Background(), uuid.New())
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestListNormalizesPaging(t *testing.T) {
	repo := newStubRepo()
	repo.listed = []models.Order{{ID: uuid.New()}}
	svc := newTestService(t, repo)

	out, err := svc.List(context.Background(), -5, -1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
