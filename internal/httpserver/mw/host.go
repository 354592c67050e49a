package mw

import (
	"net/http"
	"strings"

	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/utils"
)

// EnforceHost rejects requests whose Host header matches none of the
// allowed patterns. A pattern is either an exact hostname or a leading
// wildcard like "*.example.com". Ports are ignored on both sides so
// "localhost" covers "localhost:8080". An empty list disables the check.
func EnforceHost(allowed []string, log logger.Logger) func(http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(allowed))
	var suffixes []string
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(a, "*."); ok {
			suffixes = append(suffixes, "."+rest)
			continue
		}
		exact[utils.HostOnly(a)] = struct{}{}
	}
	if len(exact) == 0 && len(suffixes) == 0 {
		log.Debug("EnforceHost: no host list, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	match := func(host string) bool {
		if _, ok := exact[host]; ok {
			return true
		}
		for _, s := range suffixes {
			if strings.HasSuffix(host, s) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.HostOnly(r.Host))
			if !match(host) {
				log.Debugf("EnforceHost: host %q rejected", r.Host)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
