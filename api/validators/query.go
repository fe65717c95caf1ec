package validators

import (
	"net/http"
	"strconv"
)

// QueryInt parses an optional integer query parameter, falling back when the
// value is absent or malformed.
func QueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
