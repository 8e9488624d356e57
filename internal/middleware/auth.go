// Package middleware contains HTTP middleware for the booking service.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/calebross/stagebook/internal/handler"
)

// =============================================================================
// Bearer Token Middleware
// =============================================================================

// TokenAuthMiddleware protects endpoints with a static shared-secret bearer
// token supplied in the Authorization header.
type TokenAuthMiddleware struct {
	token  string
	logger *slog.Logger
}

// NewTokenAuthMiddleware creates a TokenAuthMiddleware for the given secret.
func NewTokenAuthMiddleware(token string, logger *slog.Logger) *TokenAuthMiddleware {
	return &TokenAuthMiddleware{
		token:  token,
		logger: logger,
	}
}

// RequireToken rejects requests whose Authorization header does not carry
// the exact configured bearer token. The protected handler, and therefore
// the store behind it, is never reached on a mismatch.
func (m *TokenAuthMiddleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		supplied := strings.TrimPrefix(auth, prefix)

		// Constant-time comparison to prevent timing attacks.
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(m.token)) != 1 {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Metrics Endpoint Auth
// =============================================================================

// MetricsAuthMiddleware provides basic authentication for the metrics
// endpoint. If both username and password are empty, authentication is
// disabled.
type MetricsAuthMiddleware struct {
	username string
	password string
	enabled  bool
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		username: username,
		password: password,
		enabled:  username != "" || password != "",
	}
}

// Handler returns middleware that requires basic authentication.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			m.unauthorized(w)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1

		if !userMatch || !passMatch {
			m.unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *MetricsAuthMiddleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
// The first middleware in the slice is the outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
