package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
)

type bookmarkItem struct {
	Title string   `json:"title"`
	URL   string   `json:"url"`
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// bookmarkCreateRequest carries either a single bookmark or a batch.
type bookmarkCreateRequest struct {
	bookmarkItem
	Items []bookmarkItem `json:"items,omitempty"`
}

// bookmarkPatchRequest updates bookmark fields and/or moves it. Nil fields
// are left untouched; category+bundle name the move destination.
type bookmarkPatchRequest struct {
	Title    *string   `json:"title,omitempty"`
	URL      *string   `json:"url,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Category string    `json:"category,omitempty"`
	Bundle   string    `json:"bundle,omitempty"`
}

type batchResponse struct {
	Added int `json:"added"`
}

func params(it bookmarkItem) domain.BookmarkParams {
	return domain.BookmarkParams{Title: it.Title, URL: it.URL, Notes: it.Notes, Tags: it.Tags}
}

// CreateBookmark adds one bookmark, or a batch when the body carries items.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		bundle := chi.URLParam(r, "bundle")

		var req bookmarkCreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		now := clock().UTC()

		if len(req.Items) > 0 {
			added := 0
			items := make([]domain.BookmarkParams, 0, len(req.Items))
			for _, it := range req.Items {
				items = append(items, params(it))
			}
			_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
				next, n, err := domain.AddBookmarks(t, category, bundle, items, now)
				if err != nil {
					return nil, err
				}
				added = n
				return next, nil
			})
			if err != nil {
				writeError(w, d.Logger, err)
				return
			}

			d.Logger.Info("bookmarks imported",
				logger.String("category", category),
				logger.String("bundle", bundle),
				logger.Int("added", added))
			writeJSON(w, http.StatusCreated, batchResponse{Added: added})
			return
		}

		var created *domain.Bookmark
		_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			next, b, err := domain.AddBookmark(t, category, bundle, params(req.bookmarkItem), now)
			if err != nil {
				return nil, err
			}
			created = b
			return next, nil
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark created",
			logger.String("category", category),
			logger.String("bundle", bundle),
			logger.String("title", created.Title))
		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateBookmark patches bookmark fields and/or moves it to another
// category/bundle, depending on which fields the body carries.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		bundle := chi.URLParam(r, "bundle")
		id := chi.URLParam(r, "id")

		var req bookmarkPatchRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		hasPatch := req.Title != nil || req.URL != nil || req.Notes != nil || req.Tags != nil
		hasMove := req.Category != "" || req.Bundle != ""
		if !hasPatch && !hasMove {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "nothing to update"})
			return
		}

		now := clock().UTC()

		var updated *domain.Bookmark
		_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			if hasPatch {
				patch := domain.BookmarkPatch{Title: req.Title, URL: req.URL, Notes: req.Notes, Tags: req.Tags}
				next, b, err := domain.UpdateBookmark(t, category, bundle, id, patch, now)
				if err != nil {
					return nil, err
				}
				t = next
				updated = b
			}
			if hasMove {
				toCategory, toBundle := req.Category, req.Bundle
				if toCategory == "" {
					toCategory = category
				}
				if toBundle == "" {
					toBundle = bundle
				}
				next, err := domain.MoveBookmark(t, id, category, bundle, toCategory, toBundle, now)
				if err != nil {
					return nil, err
				}
				t = next
			}
			return t, nil
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark updated",
			logger.String("category", category),
			logger.String("bundle", bundle),
			logger.String("id", id))
		if updated != nil {
			writeJSON(w, http.StatusOK, updated)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteBookmark tombstones a bookmark.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		bundle := chi.URLParam(r, "bundle")
		id := chi.URLParam(r, "id")

		now := clock().UTC()
		_, err := d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			return domain.RemoveBookmark(t, category, bundle, id, now)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark deleted",
			logger.String("category", category),
			logger.String("bundle", bundle),
			logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
