package middleware

import (
	"net/http"

	"github.com/biscenic/commerce-backend/pkg/auth"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

// Session resolves the anonymous storefront session from the cookie, minting
// a fresh one when the cookie is absent or invalid. The session id rides the
// request context from here on; the cookie keeps the session stable across
// the gateway redirect round trip.
func Session(manager *auth.SessionManager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID := ""
			if cookie, err := r.Cookie(manager.CookieName()); err == nil {
				if parsed, parseErr := manager.Parse(cookie.Value); parseErr == nil {
					sessionID = parsed
				} else if logg != nil {
					logg.Warn(ctx, "session cookie rejected, minting a new session")
				}
			}

			if sessionID == "" {
				sessionID = manager.NewSessionID()
				signed, err := manager.Mint(sessionID)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "mint session token", err)
					}
					http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`, http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, manager.Cookie(signed))
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
