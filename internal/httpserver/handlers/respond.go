package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/gist"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
	syncer "github.com/markstash/markstash/internal/sync"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := errStatus(err)
	if status >= 500 {
		log.Warn("request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// errStatus maps domain and sync errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrEmptyURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrBundleNotFound),
		errors.Is(err, domain.ErrBookmarkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCategoryExists),
		errors.Is(err, domain.ErrBundleExists),
		errors.Is(err, domain.ErrBookmarkExists):
		return http.StatusConflict
	case errors.Is(err, syncer.ErrConflictsPending),
		errors.Is(err, syncer.ErrConflictsRemain):
		return http.StatusConflict
	case errors.Is(err, syncer.ErrNoConflicts):
		return http.StatusBadRequest
	case errors.Is(err, gist.ErrUnauthorized),
		errors.Is(err, gist.ErrNotFound),
		errors.Is(err, gist.ErrVersionConflict):
		return http.StatusBadGateway
	default:
		var te *gist.TransportError
		if errors.As(err, &te) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// timeNow resolves the clock from deps, defaulting to time.Now.
func timeNow(d deps.Deps) func() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow
	}
	return time.Now
}
