package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/markdown"
)

const maxImportBytes = 10 << 20

type importResponse struct {
	Categories int `json:"categories"`
	Bundles    int `json:"bundles"`
	Bookmarks  int `json:"bookmarks"`
}

// Export writes the current tree as the markdown document, tombstones
// excluded. The output is exactly what a sync would push.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root := d.Holder.Current()
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := io.WriteString(w, markdown.Encode(root)); err != nil {
			d.Logger.Debug("failed to write export", logger.Error(err))
		}
	}
}

// Import decodes a markdown document from the body and unions its content
// into the tree. Entries already present are left alone.
func Import(d deps.Deps) http.HandlerFunc {
	clock := timeNow(d)
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}

		now := clock().UTC()
		imported, err := markdown.DecodeAt(string(body), now)
		if err != nil {
			var perr *markdown.ParseError
			if errors.As(err, &perr) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			writeError(w, d.Logger, err)
			return
		}

		var stats domain.AbsorbStats
		_, err = d.Orchestrator.Apply(r.Context(), func(t *domain.Root) (*domain.Root, error) {
			next, s := domain.Absorb(t, imported, now)
			stats = s
			return next, nil
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("markdown import absorbed",
			logger.Int("categories", stats.Categories),
			logger.Int("bundles", stats.Bundles),
			logger.Int("bookmarks", stats.Bookmarks))
		writeJSON(w, http.StatusOK, importResponse{
			Categories: stats.Categories,
			Bundles:    stats.Bundles,
			Bookmarks:  stats.Bookmarks,
		})
	}
}
