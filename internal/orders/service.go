package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biscenic/commerce-backend/pkg/db/models"
	"github.com/biscenic/commerce-backend/pkg/enums"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

const txRefConstraint = "uq_orders_gateway_tx_ref"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order persistence operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	FindByReference(ctx context.Context, gateway, reference string) (*OrderDTO, error)
	List(ctx context.Context, limit, offset int) ([]OrderDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create persists an order with its line items atomically. Creating a second
// order for the same gateway transaction returns the first one instead; the
// unique index on the reference is the arbiter.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	order := buildOrderModel(input)

	var saved *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		saved = created
		return nil
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, txRefConstraint) && input.TransactionReference != nil {
			return s.FindByReference(ctx, deref(input.PaymentGateway), *input.TransactionReference)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	return toDTO(saved), nil
}

// Get returns one order by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDTO(order), nil
}

// FindByReference returns the order created for a gateway transaction.
func (s *service) FindByReference(ctx context.Context, gateway, reference string) (*OrderDTO, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	order, err := s.repo.FindByTransactionReference(ctx, gateway, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
	}
	return toDTO(order), nil
}

// List returns orders newest first.
func (s *service) List(ctx context.Context, limit, offset int) ([]OrderDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	records, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(records))
	for i := range records {
		out = append(out, *toDTO(&records[i]))
	}
	return out, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" ||
		strings.TrimSpace(input.CustomerEmail) == "" ||
		strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name, email and phone are required")
	}
	if !input.Shipping.Complete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address, city and state are required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.TotalAmount.Cmp(decimal.Zero) <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	lineSum := decimal.Zero
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		lineSum = lineSum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	if !lineSum.Equal(input.TotalAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total does not match line items")
	}

	if input.PaymentMethod == enums.PaymentMethodFlutterwave {
		if input.TransactionReference == nil || strings.TrimSpace(*input.TransactionReference) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "gateway orders require a transaction reference")
		}
		if input.PaymentGateway == nil || strings.TrimSpace(*input.PaymentGateway) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "gateway orders require a gateway name")
		}
	}
	return nil
}

func buildOrderModel(input CreateOrderInput) *models.Order {
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyNGN
	}
	status := input.Status
	if status == "" {
		status = enums.OrderStatusPending
	}

	items := make([]models.OrderLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}

	return &models.Order{
		CustomerName:         strings.TrimSpace(input.CustomerName),
		CustomerEmail:        strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:        strings.TrimSpace(input.CustomerPhone),
		ShippingInfo:         input.Shipping.Coalesced(),
		TotalAmount:          input.TotalAmount,
		Currency:             currency,
		PaymentMethod:        input.PaymentMethod,
		PaymentGateway:       input.PaymentGateway,
		TransactionReference: input.TransactionReference,
		PaymentDetails:       input.PaymentDetails,
		Status:               status,
		Items:                items,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
