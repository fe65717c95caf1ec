package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/api/middleware"
	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/api/validators"
	cartsvc "github.com/biscenic/commerce-backend/internal/cart"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

// CartGet returns the session's cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartAddItem adds a product line (or quantity onto an existing line).
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), sessionID, cartsvc.AddItemInput{
			ProductID:    payload.ProductID,
			Name:         payload.Name,
			Price:        payload.Price,
			Qty:          payload.Qty,
			ThumbnailURL: payload.ThumbnailURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(cart))
	}
}

// CartUpdateItem replaces a line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SetQuantity(r.Context(), sessionID, chi.URLParam(r, "itemId"), payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartClear empties the session's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func requireSession(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	return sessionID, nil
}

type addItemRequest struct {
	ProductID    string          `json:"productId" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Qty          int             `json:"qty" validate:"required,min=1"`
	ThumbnailURL string          `json:"thumbnailUrl"`
}

type updateItemRequest struct {
	Qty int `json:"qty" validate:"min=0"`
}

type cartItemResponse struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
}

type cartResponse struct {
	SessionID string             `json:"sessionId"`
	Items     []cartItemResponse `json:"items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	ItemCount int                `json:"itemCount"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func newCartResponse(cart *cartsvc.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemResponse{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Price:        item.Price,
			Qty:          item.Qty,
			ThumbnailURL: item.ThumbnailURL,
		})
	}
	return cartResponse{
		SessionID: cart.SessionID,
		Items:     items,
		Subtotal:  cart.Subtotal(),
		ItemCount: cart.ItemCount(),
		UpdatedAt: cart.UpdatedAt,
	}
}
