package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jeremyjsx/postcast/internal/auth"
)

const AuthCookieName = "auth_token"

type TokenParser interface {
	Parse(token string) (*auth.User, error)
}

// Authenticate attaches the token's user to the request context. Requests
// without a token pass through anonymous; handlers decide what that means.
// A token that fails to verify is rejected outright.
func Authenticate(parser TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" || parser == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := parser.Parse(token)
			if err != nil {
				logger.Debug("rejecting token", "error", err, "request_id", GetRequestID(r.Context()))
				writeUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func extractToken(r *http.Request) string {
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    "missing or invalid token",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
