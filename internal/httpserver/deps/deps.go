package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/state"
	"github.com/markstash/markstash/internal/sync"
	redisstore "github.com/markstash/markstash/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time  // for testing, defaults to time.Now
	AuthToken    string            // bearer token for /api routes, empty disables auth
	AllowedHosts []string          // Host headers allowed to access the server
	AllowedCIDRS []string          // IPs allowed to access admin endpoints
	TrustProxy   bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	GistID       string            // remote document identity
	RedisClient  *redis.Client     // Redis client connection
	Store        *redisstore.Store // sync-state persistence, nil when redis is disabled
	Holder       *state.Holder     // in-memory bookmark tree
	Orchestrator *sync.Orchestrator
	PollTrigger  chan struct{} // Channel to trigger a manual remote poll
}
