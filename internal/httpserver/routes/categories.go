package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerCategories) }

func registerCategories(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	r.With(auth).Post("/api/categories", handlers.CreateCategory(d))
	r.With(auth).Patch("/api/categories/{category}", handlers.UpdateCategory(d))
	r.With(auth).Delete("/api/categories/{category}", handlers.DeleteCategory(d))
}
