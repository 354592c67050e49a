package handlers

import (
	"net/http"
	"strings"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
)

type searchHit struct {
	Category string           `json:"category"`
	Bundle   string           `json:"bundle"`
	Bookmark *domain.Bookmark `json:"bookmark"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

// Search matches bookmarks by title and URL substring, active nodes only.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
			return
		}

		results := domain.Search(d.Holder.Current(), query)

		hits := make([]searchHit, 0, len(results))
		for _, res := range results {
			hits = append(hits, searchHit{
				Category: res.Category,
				Bundle:   res.Bundle,
				Bookmark: res.Bookmark,
			})
		}

		d.Logger.Debug("search request",
			logger.String("query", query),
			logger.Int("hits", len(hits)))
		writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: hits})
	}
}
