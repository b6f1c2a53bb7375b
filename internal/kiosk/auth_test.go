package kiosk

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeTestAccessToken(t *testing.T, secret []byte, userID, typ string) string {
	t.Helper()
	claims := &TokenClaims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func echoViewer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-User", viewerID(r))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_WithSecret(t *testing.T) {
	secret := []byte("test-secret")
	h := AuthMiddleware(secret)(echoViewer())

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantUser string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer " + makeTestAccessToken(t, secret, "user-1", "access"),
			wantCode: http.StatusOK,
			wantUser: "user-1",
		},
		{
			name:     "token in query for websocket",
			query:    "?token=" + makeTestAccessToken(t, secret, "user-2", "access"),
			wantCode: http.StatusOK,
			wantUser: "user-2",
		},
		{
			name:     "refresh token rejected",
			header:   "Bearer " + makeTestAccessToken(t, secret, "user-1", "refresh"),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "wrong secret",
			header:   "Bearer " + makeTestAccessToken(t, []byte("other"), "user-1", "access"),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "bad scheme",
			header:   "Basic dXNlcjpwYXNz",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing token",
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/kiosks/fam-1"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// A spoofed header must never win over the token.
			req.Header.Set("X-User-Id", "spoofed")
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if got := w.Header().Get("X-Seen-User"); got != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, got)
			}
		})
	}
}

func TestAuthMiddleware_TrustsGatewayHeader(t *testing.T) {
	h := AuthMiddleware(nil)(echoViewer())

	req := httptest.NewRequest(http.MethodGet, "/kiosks/fam-1", nil)
	req.Header.Set("X-User-Id", "user-9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Seen-User"); got != "user-9" {
		t.Errorf("expected user-9, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/kiosks/fam-1", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", w.Code)
	}
}
