package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/huelink/internal/bridge"
)

// handleListBridges returns all paired bridges.
//
// Credentials never appear in the response; the bridge type excludes
// them from serialisation.
func (s *Server) handleListBridges(w http.ResponseWriter, r *http.Request) {
	bridges, err := s.bridges.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list bridges", "error", err)
		writeInternalError(w, "failed to list bridges")
		return
	}

	// Handle empty slice for clean JSON
	if bridges == nil {
		bridges = []bridge.Bridge{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bridges": bridges,
		"count":   len(bridges),
	})
}

// handleRemoveBridge deletes a paired bridge and its stored credentials.
func (s *Server) handleRemoveBridge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeBadRequest(w, "bridge id is required")
		return
	}

	if err := s.bridges.Delete(r.Context(), id); err != nil {
		if errors.Is(err, bridge.ErrBridgeNotFound) {
			writeNotFound(w, "bridge not found: "+id)
			return
		}
		s.logger.Error("failed to remove bridge", "bridge", id, "error", err)
		writeInternalError(w, "failed to remove bridge")
		return
	}

	s.logger.Info("bridge removed", "bridge", id)
	w.WriteHeader(http.StatusNoContent)
}
