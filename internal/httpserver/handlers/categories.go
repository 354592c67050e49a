package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a category through the sync funnel.
func CreateCategory(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		now := clock().UTC()
		root, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.AddCategory(t, req.Name, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("category created", logger.String("name", req.Name))
		writeJSON(w, http.StatusCreated, domain.ActiveOnly(root))
	}
}

// UpdateCategory renames a category.
func UpdateCategory(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "category")

		var req categoryRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		now := clock().UTC()
		root, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.RenameCategory(t, name, req.Name, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("category renamed",
			logger.String("from", name),
			logger.String("to", req.Name))
		writeJSON(w, http.StatusOK, domain.ActiveOnly(root))
	}
}

// DeleteCategory tombstones a category and everything under it.
func DeleteCategory(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "category")

		now := clock().UTC()
		_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.RemoveCategory(t, name, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("category deleted", logger.String("name", name))
		w.WriteHeader(http.StatusNoContent)
	}
}
