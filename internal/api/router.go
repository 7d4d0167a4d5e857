package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Bridge endpoints
		r.Route("/bridges", func(r chi.Router) {
			r.Get("/", s.handleListBridges)
			r.Delete("/{id}", s.handleRemoveBridge)
		})

		// On-demand discovery scan
		r.Post("/discovery/scan", s.handleDiscoveryScan)

		// Dispatch telemetry
		r.Get("/metrics/dispatch", s.handleDispatchMetrics)

		// WebSocket event feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
