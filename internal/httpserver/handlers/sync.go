package handlers

import (
	"net/http"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/merge"
)

type conflictsResponse struct {
	Conflicts []merge.Conflict `json:"conflicts"`
}

type resolveRequest struct {
	Resolutions []merge.Resolution `json:"resolutions"`
}

// SyncNow runs one reconciliation cycle. A merge disagreement answers 409
// with the conflict list; nothing is pushed until it is resolved.
func SyncNow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := d.Orchestrator.SyncNow(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if rep.HasConflicts() {
			writeJSON(w, http.StatusConflict, rep)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// SyncStatus reports the orchestrator's view of the world.
func SyncStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Orchestrator.Status())
	}
}

// SyncConflicts lists parked conflicts awaiting resolution.
func SyncConflicts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, conflictsResponse{Conflicts: d.Orchestrator.Conflicts()})
	}
}

// SyncResolve applies user verdicts to the parked conflicts. The pass is
// all-or-nothing: every conflict needs a verdict or the set stays parked.
func SyncResolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if len(req.Resolutions) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no resolutions given"})
			return
		}
		for _, res := range req.Resolutions {
			if res.Choice != merge.ChoiceLocal && res.Choice != merge.ChoiceRemote {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "choice must be local or remote"})
				return
			}
		}

		rep, err := d.Orchestrator.Resolve(r.Context(), req.Resolutions)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("conflicts resolved", logger.Int("resolutions", len(req.Resolutions)))
		writeJSON(w, http.StatusOK, rep)
	}
}
