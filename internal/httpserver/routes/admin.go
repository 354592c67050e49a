package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	cidrs := mw.AllowCIDRs(d.AllowedCIDRS, d.TrustProxy, d.Logger)
	r.With(cidrs).Post("/reload", handlers.Reload(d))
	r.With(cidrs).Get("/infra", handlers.Infra(d))
}
