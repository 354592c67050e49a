package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
)

type bundleRequest struct {
	Name string `json:"name"`
}

// bundlePatchRequest renames a bundle, moves it to another category, or both.
type bundlePatchRequest struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

// CreateBundle adds a bundle to a category.
func CreateBundle(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")

		var req bundleRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		now := clock().UTC()
		root, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.AddBundle(t, category, req.Name, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bundle created",
			logger.String("category", category),
			logger.String("name", req.Name))
		writeJSON(w, http.StatusCreated, domain.ActiveOnly(root))
	}
}

// UpdateBundle renames a bundle and/or moves it to another category,
// depending on which fields the body carries.
func UpdateBundle(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		bundle := chi.URLParam(r, "bundle")

		var req bundlePatchRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.Name == "" && req.Category == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "nothing to update"})
			return
		}

		now := clock().UTC()
		root, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			name := bundle
			if req.Name != "" && req.Name != bundle {
				renamed, err := domain.RenameBundle(t, category, bundle, req.Name, now)
				if err != nil {
					return nil, err
				}
				t = renamed
				name = req.Name
			}
			if req.Category != "" && req.Category != category {
				moved, err := domain.MoveBundle(t, name, category, req.Category, now)
				if err != nil {
					return nil, err
				}
				t = moved
			}
			return t, nil
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bundle updated",
			logger.String("category", category),
			logger.String("bundle", bundle))
		writeJSON(w, http.StatusOK, domain.ActiveOnly(root))
	}
}

// DeleteBundle tombstones a bundle and its bookmarks.
func DeleteBundle(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		bundle := chi.URLParam(r, "bundle")

		now := clock().UTC()
		_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.RemoveBundle(t, category, bundle, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bundle deleted",
			logger.String("category", category),
			logger.String("bundle", bundle))
		w.WriteHeader(http.StatusNoContent)
	}
}
