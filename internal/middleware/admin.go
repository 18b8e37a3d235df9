package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
)

// AdminVerifier checks fernet admin tokens on gated endpoints. Tokens are
// minted offline (daybookctl token) from the same key and expire after TTL.
type AdminVerifier struct {
	key *fernet.Key
	ttl time.Duration
}

// NewAdminVerifier creates a verifier from a URL-safe base64 fernet key.
// An empty key string is an error: gated endpoints must not be left open.
func NewAdminVerifier(keyStr string, ttl time.Duration) (*AdminVerifier, error) {
	keyStr = strings.TrimSpace(keyStr)
	if keyStr == "" {
		return nil, fmt.Errorf("admin key is empty")
	}

	k, err := fernet.DecodeKey(keyStr)
	if err != nil {
		return nil, fmt.Errorf("decoding admin key: %w", err)
	}

	return &AdminVerifier{key: k, ttl: ttl}, nil
}

// MintToken issues a new admin token. Used by the CLI, not the server.
func (v *AdminVerifier) MintToken() (string, error) {
	tok, err := fernet.EncryptAndSign([]byte("daybook-admin"), v.key)
	if err != nil {
		return "", fmt.Errorf("minting admin token: %w", err)
	}
	return string(tok), nil
}

// Verify reports whether the token is authentic and within its TTL.
func (v *AdminVerifier) Verify(token string) bool {
	msg := fernet.VerifyAndDecrypt([]byte(token), v.ttl, []*fernet.Key{v.key})
	return msg != nil
}

// Middleware rejects requests lacking a valid bearer admin token. A nil
// verifier rejects everything, so misconfiguration fails closed.
func (v *AdminVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if v == nil || token == "" || token == r.Header.Get("Authorization") || !v.Verify(token) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "UNAUTHORIZED",
					"message": "Valid admin token required",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
