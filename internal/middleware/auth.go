package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/simonkvalheim/hm9-accounts/internal/auth"
)

// ContextKey is the type for context keys to avoid collisions
type ContextKey string

const (
	// CustomerIDKey is the context key for the authenticated customer ID
	CustomerIDKey ContextKey = "customer_id"
)

// AuthMiddleware validates JWT tokens and adds the caller to the context
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth is middleware that requires a valid access token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, "Missing authorization header")
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeUnauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.authService.ValidateAccessToken(parts[1])
		if err != nil {
			writeUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), CustomerIDKey, claims.CustomerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCustomerID extracts the caller's customer ID from the request context.
// Returns uuid.Nil when the request was not authenticated.
func GetCustomerID(ctx context.Context) uuid.UUID {
	id, ok := ctx.Value(CustomerIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "` + message + `"}`))
}
