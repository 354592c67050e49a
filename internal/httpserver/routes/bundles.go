package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerBundles) }

func registerBundles(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	r.With(auth).Post("/api/categories/{category}/bundles", handlers.CreateBundle(d))
	r.With(auth).Patch("/api/categories/{category}/bundles/{bundle}", handlers.UpdateBundle(d))
	r.With(auth).Delete("/api/categories/{category}/bundles/{bundle}", handlers.DeleteBundle(d))
}
