package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// Auth requires "Authorization: Bearer <token>" when token is non-empty.
// An empty token disables the check, for trusted-network deployments.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Printf("HTTP 401: missing or invalid bearer token (path=%s)", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="prompttune"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
