// Package httpserver assembles the chi router, the middleware stack and
// the http.Server lifecycle around the registered routes.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/markstash/markstash/internal/config"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/mw"
	"github.com/markstash/markstash/internal/httpserver/routes"
	"github.com/markstash/markstash/internal/logger"
)

type Server struct {
	http *http.Server
	log  logger.Logger
}

// New builds the router and wires the global middleware stack. Routes
// register themselves via routes.Register from their init functions.
func New(cfg *config.Config, log logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Per-request timeout; sync against the remote can legitimately take
	// several retry rounds, so this is generous.
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(mw.Log(log))
	r.Use(mw.EnforceHost(d.AllowedHosts, log))
	r.Use(mw.RateLimit(mw.RateLimitConfig{
		Burst:             cfg.RateLimitBurst,
		RefillPerIPPerMin: cfg.RateLimitRefillPerMin,
		MaxEntries:        cfg.RateLimitMaxEntries,
		TrustProxy:        d.TrustProxy,
	}))

	routes.RegisterAll(r, d)

	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenPort,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Must outlast the per-request timeout above.
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		log: log,
	}
}

// Start blocks on ListenAndServe. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
