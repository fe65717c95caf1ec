package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/api/validators"
	"github.com/biscenic/commerce-backend/internal/products"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

// ProductsList returns active products, optionally scoped to a collection.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := products.ListFilter{
			Limit:  validators.QueryInt(r, "limit", 0),
			Offset: validators.QueryInt(r, "offset", 0),
		}
		if raw := r.URL.Query().Get("collectionId"); raw != "" {
			collectionID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid collection id"))
				return
			}
			filter.CollectionID = &collectionID
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductsGet resolves a product by id or slug.
func ProductsGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
