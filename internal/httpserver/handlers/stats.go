package handlers

import (
	"net/http"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
)

type statsResponse struct {
	Categories        int              `json:"categories"`
	Bundles           int              `json:"bundles"`
	Bookmarks         int              `json:"bookmarks"`
	DeletedCategories int              `json:"deleted_categories"`
	DeletedBundles    int              `json:"deleted_bundles"`
	DeletedBookmarks  int              `json:"deleted_bookmarks"`
	Counters          map[string]int64 `json:"counters,omitempty"`
}

// Stats returns node counts for the held tree plus lifetime sync counters.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := domain.Stats(d.Holder.Current())
		resp := statsResponse{
			Categories:        s.Categories,
			Bundles:           s.Bundles,
			Bookmarks:         s.Bookmarks,
			DeletedCategories: s.DeletedCategories,
			DeletedBundles:    s.DeletedBundles,
			DeletedBookmarks:  s.DeletedBookmarks,
		}

		if d.Store != nil {
			counters, err := d.Store.Counters(r.Context(), d.GistID)
			if err != nil {
				d.Logger.Debug("failed to load sync counters", logger.Error(err))
			} else {
				resp.Counters = counters
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
