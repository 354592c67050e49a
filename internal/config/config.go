package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Gist remote
	GistID          string // gist holding the bookmark document (empty + GistCreate => create on boot)
	GistToken       string // GitHub token with the gist scope
	GistFile        string // filename inside the gist (default: bookmarks.md)
	GistAPIURL      string // override for GitHub Enterprise or tests
	GistCreate      bool   // create the gist on first boot when GistID is empty
	GistDescription string // description used when creating the gist

	// Sync behavior
	PollInterval       time.Duration // interval between remote change checks (default: 10s)
	GCInterval         time.Duration // interval between tombstone collection runs (default: 24h)
	TombstoneRetention time.Duration // how long tombstones are kept (default: 720h)
	SyncStrategy       string        // "timestamp" | "local" | "remote"

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	// Access restrictions
	AuthToken    string   // bearer token for /api, empty = no auth (localhost default)
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limiting
	RateLimitBurst        int // bucket capacity per client IP
	RateLimitRefillPerMin int // tokens refilled per minute per client IP
	RateLimitMaxEntries   int // max tracked client IPs before a sweep
}

// fileVals holds values from the optional yaml config file named by
// MARKSTASH_CONFIG. Keys match the environment variable names; real
// environment variables always win.
var fileVals map[string]string

func Load() *Config {
	fileVals = loadFile(os.Getenv("MARKSTASH_CONFIG"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKSTASH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKSTASH_SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("MARKSTASH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKSTASH_PRETTY_LOG", true),

		// Gist remote
		GistID:          getenv("MARKSTASH_GIST_ID", ""),
		GistToken:       requireEnv("MARKSTASH_GIST_TOKEN"),
		GistFile:        getenv("MARKSTASH_GIST_FILE", "bookmarks.md"),
		GistAPIURL:      getenv("MARKSTASH_GIST_API_URL", "https://api.github.com"),
		GistCreate:      mustBool("MARKSTASH_GIST_CREATE", false),
		GistDescription: getenv("MARKSTASH_GIST_DESCRIPTION", "markstash bookmarks"),

		// Sync behavior
		PollInterval:       mustDuration("MARKSTASH_POLL_INTERVAL", 10*time.Second),
		GCInterval:         mustDuration("MARKSTASH_GC_INTERVAL", 24*time.Hour),
		TombstoneRetention: mustDuration("MARKSTASH_TOMBSTONE_RETENTION", 720*time.Hour),
		SyncStrategy:       getenv("MARKSTASH_SYNC_STRATEGY", "timestamp"),

		// Redis settings
		RedisAddr:             getenv("MARKSTASH_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("MARKSTASH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MARKSTASH_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("MARKSTASH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKSTASH_REDIS_DB", 0),
		RedisDT:               mustDuration("MARKSTASH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("MARKSTASH_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("MARKSTASH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("MARKSTASH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("MARKSTASH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("MARKSTASH_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("MARKSTASH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("MARKSTASH_REDIS_RETRY_INTERVAL", 2*time.Second),

		// Access restrictions
		AuthToken:    getenv("MARKSTASH_AUTH_TOKEN", ""),
		AllowedHosts: parseAllowedIPs(getenv("MARKSTASH_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("MARKSTASH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("MARKSTASH_TRUST_PROXY", false),

		// Rate limiting
		RateLimitBurst:        getenvInt("MARKSTASH_RATE_LIMIT_BURST", 20),
		RateLimitRefillPerMin: getenvInt("MARKSTASH_RATE_LIMIT_REFILL_PER_MIN", 60),
		RateLimitMaxEntries:   getenvInt("MARKSTASH_RATE_LIMIT_MAX_ENTRIES", 10000),
	}

	// A gist to sync against must exist or be creatable
	if cfg.GistID == "" && !cfg.GistCreate {
		panic("❌ FATAL: MARKSTASH_GIST_ID is required unless MARKSTASH_GIST_CREATE=true")
	}

	switch cfg.SyncStrategy {
	case "timestamp", "local", "remote":
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid MARKSTASH_SYNC_STRATEGY %q (want timestamp, local or remote)", cfg.SyncStrategy))
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MARKSTASH_REDIS_PASSWORD is required when MARKSTASH_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.GistToken = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.AuthToken != "" {
			cfgCopy.AuthToken = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadFile reads the optional yaml config file. Keys are the same names
// as the environment variables; scalar values only.
func loadFile(path string) map[string]string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Cannot read config file %s: %v", path, err))
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("❌ FATAL: Cannot parse config file %s: %v", path, err))
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// helpers
func lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fileVals[key]
}

func getenv(key, def string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
