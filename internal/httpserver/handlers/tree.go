package handlers

import (
	"net/http"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/httpserver/deps"
)

type treeResponse struct {
	Tree       *domain.Root `json:"tree"`
	LastSynced time.Time    `json:"last_synced"`
}

// Tree returns the active projection of the current tree. Tombstones are
// local bookkeeping and never leave the server.
func Tree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root, lastSynced := d.Holder.Snapshot()
		writeJSON(w, http.StatusOK, treeResponse{
			Tree:       domain.ActiveOnly(root),
			LastSynced: lastSynced.UTC(),
		})
	}
}
