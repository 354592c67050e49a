package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerTransfer) }

func registerTransfer(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	r.With(auth).Get("/api/export", handlers.Export(d))
	r.With(auth).Post("/api/import", handlers.Import(d))
}
