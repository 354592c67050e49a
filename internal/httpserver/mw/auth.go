package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/markstash/markstash/internal/logger"
)

// Auth requires a bearer token on every request. If token is empty, it does NOT
// filter (passthrough), which is the expected mode for a localhost deployment.
func Auth(token string, log logger.Logger) func(http.Handler) http.Handler {
	if token == "" {
		log.Debug("Auth: no token configured, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				log.Debugf("Auth: rejected request to %s", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="markstash"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}
