package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerTree) }

func registerTree(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	r.With(auth).Get("/api/tree", handlers.Tree(d))
	r.With(auth).Get("/api/search", handlers.Search(d))
	r.With(auth).Get("/api/stats", handlers.Stats(d))
}
