package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerSync) }

func registerSync(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	r.With(auth).Post("/api/sync", handlers.SyncNow(d))
	r.With(auth).Get("/api/sync/status", handlers.SyncStatus(d))
	r.With(auth).Get("/api/sync/conflicts", handlers.SyncConflicts(d))
	r.With(auth).Post("/api/sync/resolve", handlers.SyncResolve(d))
}
