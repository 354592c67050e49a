package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	LastSync  string `json:"last_sync,omitempty"`
	Pending   *int   `json:"pending_conflicts,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := domain.Stats(d.Holder.Current())
		bookmarks := stats.Bookmarks

		status := d.Orchestrator.Status()
		lastSync := "never"
		if !status.LastSynced.IsZero() && status.LastSynced.After(domain.Epoch) {
			lastSync = status.LastSynced.Format("2006-01-02 15:04:05")
		}
		pending := status.PendingConflicts

		components := map[string]componentStatus{
			"tree": {
				OK:        true,
				Bookmarks: &bookmarks,
			},
			"redis": checkRedis(d),
			"sync": {
				OK:       pending == 0,
				LastSync: lastSync,
				Pending:  &pending,
			},
		}

		response := infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	// Parked conflicts block the push path entirely
	if sync, exists := components["sync"]; exists && !sync.OK {
		return "blocked"
	}

	// Redis down means no crash recovery, sync itself still works
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "continuous"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "state-persistence-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.RedisClient.Ping(ctx).Err()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "state-persistence-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "state-persistence-enabled",
		Error:  "none",
	}
}
