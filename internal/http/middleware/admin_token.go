package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	adminTokenHeader = "X-Admin-Token"
	adminTokenQuery  = "token"
)

// RequireAdminToken guards maintenance endpoints such as reset and the test
// mail trigger. When expected is empty, the middleware is a no-op.
func RequireAdminToken(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if token == "" {
				token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			}
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get(adminTokenQuery))
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				http.Error(w, "invalid admin token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
