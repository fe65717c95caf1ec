package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/biscenic/commerce-backend/pkg/config"
)

// CORS returns middleware that applies the storefront's allowed origin
// policy. Credentials stay enabled so the session cookie travels with every
// request.
func CORS(cfg config.StorefrontConfig) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	if cfg.BaseURL != "" {
		origins = append(origins, cfg.BaseURL)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
