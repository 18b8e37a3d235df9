// Package middleware provides HTTP middleware for Daybook.
package middleware

import (
	"context"
	"net/http"
)

// contextKey is a private type for context keys.
type contextKey string

const clientIDKey contextKey = "client_id"

// ClientIDFromContext extracts the client ID from the request context.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientIDKey).(string); ok {
		return v
	}
	return ""
}

// ClientAuth extracts the caller identity from the X-Client-ID header and
// injects it into the request context. Identity is informational (logging,
// rate-limit keying); authentication proper is handled upstream.
func ClientAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-ID")
			if clientID == "" {
				clientID = "anonymous"
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
