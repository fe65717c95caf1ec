package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/internal/checkout"
	"github.com/biscenic/commerce-backend/pkg/config"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

// CheckoutPlaceOrder submits a cash-on-delivery order from the current cart
// and checkout data.
func CheckoutPlaceOrder(svc checkout.Finalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceCODOrder(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CheckoutPay snapshots the checkout and opens a hosted gateway payment.
func CheckoutPay(svc checkout.Finalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.StartGatewayPayment(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// CheckoutReturn is the browser's landing point after the gateway redirect.
// It always answers with a redirect back into the storefront, success or not;
// a shopper should never see a JSON error after paying.
func CheckoutReturn(svc checkout.Finalizer, storefront config.StorefrontConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txRef := r.URL.Query().Get("tx_ref")
		status := r.URL.Query().Get("status")

		outcome, err := svc.HandleGatewayReturn(r.Context(), sessionID, txRef, status)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "gateway return failed", err)
			}
			http.Redirect(w, r, errorRedirect(storefront, txRef, err), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, outcome.RedirectURL, http.StatusSeeOther)
	}
}

// errorRedirect picks the storefront error page for a failed return. An order
// that could not be saved after a charge gets its transaction reference in the
// URL so support can resolve it from the shopper's screen.
func errorRedirect(storefront config.StorefrontConfig, txRef string, err error) string {
	query := url.Values{}
	if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeOrderNotSaved {
		query.Set("reason", "order_not_saved")
		query.Set("txRef", txRef)
	} else {
		query.Set("reason", "payment_failed")
	}
	base := strings.TrimRight(storefront.BaseURL, "/")
	return base + storefront.ErrorURL + "?" + query.Encode()
}
