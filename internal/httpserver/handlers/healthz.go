package handlers

import (
	"net/http"
	"time"

	"github.com/markstash/markstash/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports process liveness and build identity. It never touches
// redis or the gist, so it answers even when both are down.
func Healthz(d deps.Deps) http.HandlerFunc {
	static := healthzResponse{
		Status:    "ok",
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := static
		resp.UptimeSeconds = time.Since(d.StartTime).Seconds()
		writeJSON(w, http.StatusOK, resp)
	}
}
