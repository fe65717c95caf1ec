package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/api/validators"
	"github.com/biscenic/commerce-backend/internal/checkout"
	"github.com/biscenic/commerce-backend/pkg/enums"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/types"
)

// CheckoutSessionGet returns the session's checkout state, creating it on
// first touch.
func CheckoutSessionGet(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// CheckoutSessionUpdate merges customer, shipping or payment method fields
// into the checkout session.
func CheckoutSessionUpdate(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.UpdateDataInput{
			Customer: payload.Customer,
			Shipping: payload.Shipping,
		}
		if payload.PaymentMethod != nil {
			method := enums.PaymentMethod(*payload.PaymentMethod)
			input.PaymentMethod = &method
		}

		session, err := svc.UpdateData(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// CheckoutNext advances the checkout one step.
func CheckoutNext(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return stepTransition(logg, svc.Next)
}

// CheckoutPrevious steps the checkout back.
func CheckoutPrevious(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return stepTransition(logg, svc.Previous)
}

// CheckoutGoTo jumps to a named step.
func CheckoutGoTo(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload gotoStepRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GoTo(r.Context(), sessionID, enums.CheckoutStep(payload.Step))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// CheckoutReset discards the checkout state and starts over.
func CheckoutReset(svc checkout.SessionService, logg *logger.Logger) http.HandlerFunc {
	return stepTransition(logg, svc.Reset)
}

func stepTransition(
	logg *logger.Logger,
	transition func(ctx context.Context, sessionID string) (*checkout.Session, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := transition(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

type updateSessionRequest struct {
	Customer      *types.CustomerInfo `json:"customer"`
	Shipping      *types.ShippingInfo `json:"shipping"`
	PaymentMethod *string             `json:"paymentMethod" validate:"omitempty,oneof=flutterwave cod"`
}

type gotoStepRequest struct {
	Step string `json:"step" validate:"required"`
}

type sessionResponse struct {
	SessionID      string              `json:"sessionId"`
	Step           enums.CheckoutStep  `json:"step"`
	Customer       types.CustomerInfo  `json:"customer"`
	Shipping       types.ShippingInfo  `json:"shipping"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentPending bool                `json:"paymentPending"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func newSessionResponse(session *checkout.Session) sessionResponse {
	return sessionResponse{
		SessionID:      session.SessionID,
		Step:           session.Step,
		Customer:       session.Customer,
		Shipping:       session.Shipping,
		PaymentMethod:  session.PaymentMethod,
		PaymentPending: session.HasPendingPayment(),
		UpdatedAt:      session.UpdatedAt,
	}
}
