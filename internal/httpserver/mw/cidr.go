package mw

import (
	"net/http"

	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/utils"
)

// AllowCIDRs restricts a route to callers whose address falls inside one
// of the given IPs or CIDR blocks. An empty list disables the check,
// which is the expected mode for a localhost deployment.
func AllowCIDRs(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowCIDRs: no address list, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debugf("AllowCIDRs: %s rejected for %s", ip, r.URL.Path)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
