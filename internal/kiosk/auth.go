package kiosk

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type ctxViewerKey struct{}

// AuthMiddleware resolves the viewer. With a secret it validates a Bearer
// access token; without one it trusts the X-User-Id header set by the
// gateway.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var viewerID string
			if len(secret) == 0 {
				viewerID = r.Header.Get("X-User-Id")
			} else {
				id, ok := viewerFromToken(r, secret)
				if !ok {
					writeError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				viewerID = id
				r.Header.Set("X-User-Id", viewerID)
			}
			if viewerID == "" {
				writeError(w, http.StatusUnauthorized, "missing user context")
				return
			}
			ctx := context.WithValue(r.Context(), ctxViewerKey{}, viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func viewerFromToken(r *http.Request, secret []byte) (string, bool) {
	raw := ""
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		raw = parts[1]
	} else {
		// Browsers cannot set headers on a websocket handshake.
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return "", false
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.TokenType != "access" || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

func viewerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxViewerKey{}).(string)
	return id
}
