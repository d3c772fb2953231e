package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"metabridge/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ClaimsContextKey carries the verified token claims for the request
const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	signer  *security.TokenSigner
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(signer *security.TokenSigner, limiter *security.RateLimiter) *Middleware {
	return &Middleware{signer: signer, limiter: limiter}
}

// RequireRole requires a valid, unexpired bearer token carrying the given role
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Missing auth token", "", nil)
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			respondError(w, http.StatusUnauthorized, "Invalid auth header", "", nil)
			return
		}

		claims, err := m.signer.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token", "Token verification failed", err)
			return
		}

		if claims.Role != role {
			respondError(w, http.StatusForbidden, "Forbidden", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects requests from clients that exceed the configured rate
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondError(w, http.StatusTooManyRequests, "Too many requests, try again later", "", nil)
			return
		}
		next(w, r)
	}
}

// GetClaimsFromContext retrieves the verified claims from the request context
func GetClaimsFromContext(ctx context.Context) *security.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	if !ok {
		return nil
	}
	return claims
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
