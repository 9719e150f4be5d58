package api

import (
	"net/http"

	"github.com/prodlens-io/prodlens/internal/analytics"
)

// handleDashboardLogs responds with the filtered, recency-sorted log listing.
// Each record carries its per-field deviation classification and overall
// alert flag so the dashboard needs no tolerance logic of its own.
func (s *Server) handleDashboardLogs(w http.ResponseWriter, r *http.Request) {
	filter, problem := parseFilter(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	view, _, records := s.pipeline()
	filtered := analytics.Apply(records, filter)

	entries := make([]LogEntry, 0, len(filtered))

	for _, record := range filtered {
		assessment := s.evaluator.Evaluate(record, analytics.FindPreset(view.Presets, record.ProductName))

		entries = append(entries, LogEntry{
			Record:     record,
			Deviations: assessment.Fields,
			HasAlert:   assessment.HasAlert,
		})
	}

	s.writeJSONResponse(w, r, http.StatusOK, LogsResponse{
		Records: entries,
		Total:   len(entries),
	})
}
