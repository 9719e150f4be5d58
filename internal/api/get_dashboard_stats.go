package api

import (
	"net/http"
	"time"

	"github.com/prodlens-io/prodlens/internal/analytics"
)

// handleDashboardStats responds with the rolling counters and yield over the
// optionally filtered snapshot.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	filter, problem := parseFilter(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	view, _, records := s.pipeline()
	filtered := analytics.Apply(records, filter)

	stats := s.evaluator.Stats(filtered, view.Presets, time.Now())

	s.writeJSONResponse(w, r, http.StatusOK, stats)
}
