package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/biscenic/commerce-backend/pkg/config"
)

var (
	errSecretRequired = errors.New("session secret is required")
	errEmptySessionID = errors.New("session id is required")
	errInvalidToken   = errors.New("session token is invalid")
	errMissingSubject = errors.New("session token has no subject")
	errUnexpectedAlgo = errors.New("unexpected session token signing method")
)

// SessionManager mints and parses the anonymous storefront session token. The
// token travels in a cookie so the session survives the gateway redirect round
// trip.
type SessionManager struct {
	secret     []byte
	issuer     string
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager builds a manager from the configured session settings.
func NewSessionManager(cfg config.SessionConfig) (*SessionManager, error) {
	if cfg.Secret == "" {
		return nil, errSecretRequired
	}
	return &SessionManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL(),
		secure:     cfg.Secure,
	}, nil
}

// NewSessionID returns a fresh anonymous session identifier.
func (m *SessionManager) NewSessionID() string {
	return uuid.NewString()
}

// Mint signs a token carrying the session id.
func (m *SessionManager) Mint(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errEmptySessionID
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the session id it carries.
func (m *SessionManager) Parse(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedAlgo
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// Cookie wraps a signed token into the session cookie.
func (m *SessionManager) Cookie(signed string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cookieName
}
