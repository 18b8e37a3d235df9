package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
)

func newTestVerifier(t *testing.T, ttl time.Duration) *AdminVerifier {
	t.Helper()
	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	v, err := NewAdminVerifier(key.Encode(), ttl)
	if err != nil {
		t.Fatalf("creating verifier: %v", err)
	}
	return v
}

func TestNewAdminVerifier_BadKey(t *testing.T) {
	if _, err := NewAdminVerifier("", time.Hour); err == nil {
		t.Error("empty key must be rejected")
	}
	if _, err := NewAdminVerifier("not-a-fernet-key", time.Hour); err == nil {
		t.Error("malformed key must be rejected")
	}
}

func TestAdminVerifier_MintAndVerify(t *testing.T) {
	v := newTestVerifier(t, time.Hour)

	token, err := v.MintToken()
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	if !v.Verify(token) {
		t.Error("freshly minted token must verify")
	}
	if v.Verify("garbage") {
		t.Error("garbage token must not verify")
	}

	// A token from a different key must not verify.
	other := newTestVerifier(t, time.Hour)
	foreign, err := other.MintToken()
	if err != nil {
		t.Fatalf("minting foreign token: %v", err)
	}
	if v.Verify(foreign) {
		t.Error("token from another key must not verify")
	}
}

func TestAdminMiddleware(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	token, err := v.MintToken()
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		verifier   *AdminVerifier
		authHeader string
		wantStatus int
	}{
		{"valid token", v, "Bearer " + token, http.StatusOK},
		{"missing header", v, "", http.StatusUnauthorized},
		{"missing bearer prefix", v, token, http.StatusUnauthorized},
		{"invalid token", v, "Bearer nope", http.StatusUnauthorized},
		{"nil verifier fails closed", nil, "Bearer " + token, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/embeddings/generate", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			tt.verifier.Middleware(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminMiddleware_ExpiredToken(t *testing.T) {
	v := newTestVerifier(t, time.Millisecond)
	token, err := v.MintToken()
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if v.Verify(token) {
		t.Error("token past its TTL must not verify")
	}
}
