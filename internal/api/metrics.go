package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/huelink/internal/infrastructure/influxdb"
)

// defaultMetricsWindow is the lookback window when the request does not
// specify one.
const defaultMetricsWindow = time.Hour

// handleDispatchMetrics returns aggregated dispatch statistics from the
// telemetry store.
//
// Query parameters:
//   - window: lookback window as a Go duration, e.g. 15m or 1h (default 1h)
//
// Responds 503 when telemetry is disabled or unreachable, so callers can
// distinguish "no data" from "not collecting".
func (s *Server) handleDispatchMetrics(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		writeServiceUnavailable(w, "dispatch telemetry is not enabled")
		return
	}

	window := defaultMetricsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "window must be a positive duration, e.g. 15m or 1h")
			return
		}
		window = parsed
	}

	stats, err := s.telemetry.DispatchStats(r.Context(), window)
	if err != nil {
		if errors.Is(err, influxdb.ErrNotConnected) {
			writeServiceUnavailable(w, "dispatch telemetry is not connected")
			return
		}
		s.logger.Error("dispatch stats query failed", "error", err)
		writeInternalError(w, "failed to query dispatch statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
