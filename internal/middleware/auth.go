package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// contextKey is a type-safe key for request context values
type contextKey string

const (
	userIDContextKey    = contextKey("userID")
	requestIDContextKey = contextKey("requestID")
)

// TokenVerifier validates a bearer token and returns the embedded user id
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthMiddleware guards protected routes. It extracts the bearer token from
// the Authorization header, verifies it, and injects the authenticated user
// id into the request context. It performs no database access: identity is
// recovered from the token alone.
func AuthMiddleware(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user id from the request context.
// Only valid for requests that passed AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID injects a user id into a context. Used by the middleware
// and by tests.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
