package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/api/validators"
	"github.com/biscenic/commerce-backend/pkg/config"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/flutterwave"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

type paymentGateway interface {
	Initialize(ctx context.Context, input flutterwave.InitializeInput) (string, error)
	Verify(ctx context.Context, txRef string) (*flutterwave.VerificationResult, error)
}

// PaymentsInitialize opens a hosted payment page for an arbitrary charge.
// Storefront checkout uses the finalizer; this is the raw gateway surface.
// The transaction reference is minted server-side and the gateway sends the
// customer back to the configured checkout return URL.
func PaymentsInitialize(gw paymentGateway, storefront config.StorefrontConfig, checkoutCfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload initializePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prefix := checkoutCfg.TransactionPrefix
		if prefix == "" {
			prefix = "BSC"
		}
		txRef := fmt.Sprintf("%s-%s", prefix, uuid.NewString())

		link, err := gw.Initialize(r.Context(), flutterwave.InitializeInput{
			TxRef:       txRef,
			Amount:      payload.Amount,
			Currency:    payload.Currency,
			RedirectURL: storefront.ReturnURL,
			Email:       payload.Email,
			Name:        payload.Name,
			PhoneNumber: payload.PhoneNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"authorization_url": link, "tx_ref": txRef})
	}
}

// PaymentsVerify looks a transaction up at the gateway by its reference.
func PaymentsVerify(gw paymentGateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txRef := strings.TrimSpace(r.URL.Query().Get("reference"))
		if txRef == "" {
			txRef = strings.TrimSpace(r.URL.Query().Get("tx_ref"))
		}
		if txRef == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference query parameter is required"))
			return
		}

		result, err := gw.Verify(r.Context(), txRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, verifyResponse{
			TxRef:    result.Reference,
			Status:   result.Status.String(),
			Amount:   result.Amount,
			Currency: result.Currency,
		})
	}
}

type initializePaymentRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	Name        string          `json:"name" validate:"required"`
	PhoneNumber string          `json:"phonenumber"`
	Gateway     string          `json:"gateway" validate:"omitempty,oneof=flutterwave"`
}

type verifyResponse struct {
	TxRef    string          `json:"tx_ref"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
