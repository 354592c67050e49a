package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/markstash/markstash/internal/utils"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int
	IdleTTL           time.Duration
	TrustProxy        bool // resolve IP from proxy headers when true
}

func (c *RateLimitConfig) normalize() {
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillPerIPPerMin < 1 {
		c.RefillPerIPPerMin = 1
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
}

// visitor is one client's token bucket. tokens refills continuously at
// the configured per-minute rate, capped at the burst size.
type visitor struct {
	tokens float64
	seen   time.Time
}

type rateLimiter struct {
	perSec  float64
	burst   float64
	max     int
	idleTTL time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		perSec:    float64(cfg.RefillPerIPPerMin) / 60.0,
		burst:     float64(cfg.Burst),
		max:       cfg.MaxEntries,
		idleTTL:   cfg.IdleTTL,
		visitors:  make(map[string]*visitor, 64),
		lastSweep: time.Now(),
	}
}

// take spends one token for key. When the bucket is empty it reports
// how many seconds until the next token accrues.
func (l *rateLimiter) take(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= time.Minute || (l.max > 0 && len(l.visitors) >= l.max) {
		l.sweep(now)
	}

	v := l.visitors[key]
	if v == nil {
		v = &visitor{tokens: l.burst}
		l.visitors[key] = v
	} else if dt := now.Sub(v.seen).Seconds(); dt > 0 {
		v.tokens = math.Min(l.burst, v.tokens+dt*l.perSec)
	}
	v.seen = now

	if v.tokens < 1.0 {
		sec := int(math.Ceil((1.0 - v.tokens) / l.perSec))
		if sec < 1 {
			sec = 1
		}
		return false, 0, sec
	}
	v.tokens--
	return true, int(v.tokens), 0
}

func (l *rateLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.seen) > l.idleTTL {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

// RateLimit applies a per-IP token bucket to every request. Idle buckets
// are swept opportunistically, so no background goroutine is needed.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg.normalize()
	l := newRateLimiter(cfg)
	limitStr := strconv.Itoa(cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, cfg.TrustProxy)

			ok, remaining, retry := l.take(key, time.Now())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
