package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/internal/collections"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

// CollectionsList returns all collections ordered by name.
func CollectionsList(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CollectionsGet resolves a collection by slug.
func CollectionsGet(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, collection)
	}
}
