package api

import (
	"net/http"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/discovery"
)

// handleDiscoveryScan runs an on-demand discovery scan.
//
// By default already-paired bridges are filtered out of the results.
// Passing ?all=true skips the filter and reports every bridge found,
// which is how a UI re-confirms a paired bridge is still reachable.
func (s *Server) handleDiscoveryScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeServiceUnavailable(w, "discovery is not enabled")
		return
	}

	ctx := r.Context()

	var known []bridge.Bridge
	if r.URL.Query().Get("all") != "true" {
		var err error
		known, err = s.bridges.List(ctx)
		if err != nil {
			s.logger.Error("failed to list bridges for scan filter", "error", err)
			writeInternalError(w, "failed to list known bridges")
			return
		}
	}

	found := s.scanner.Discover(ctx, known)

	// Handle empty slice for clean JSON
	if found == nil {
		found = []discovery.DiscoveredBridge{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bridges": found,
		"count":   len(found),
	})
}
