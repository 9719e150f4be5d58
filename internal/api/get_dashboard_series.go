package api

import (
	"fmt"
	"net/http"

	"github.com/prodlens-io/prodlens/internal/analytics"
)

// defaultSeriesField is charted when the request names no field.
const defaultSeriesField = "speed"

// handleDashboardSeries responds with the bounded chart-ready series for one
// field: windowed points in ascending time order, the computed axis domain,
// and the tolerance band in effect.
//
// The tolerance comes from the preset of the filtered product when one
// matches, otherwise from the category defaults.
func (s *Server) handleDashboardSeries(w http.ResponseWriter, r *http.Request) {
	filter, problem := parseFilter(r)
	if problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	field := r.URL.Query().Get("field")
	if field == "" {
		field = defaultSeriesField
	}

	view, catalog, records := s.pipeline()

	if !catalog.Has(field) {
		WriteErrorResponse(w, r, s.logger,
			BadRequest(fmt.Sprintf("unknown field %q", field)))

		return
	}

	preset := analytics.FindPreset(view.Presets, filter.Product)
	tol := s.tolerances.Resolve(preset, field)

	filtered := analytics.Apply(records, filter)
	points := analytics.Window(filtered, field, tol)

	s.writeJSONResponse(w, r, http.StatusOK, SeriesResponse{
		Field:     field,
		Label:     catalog.Label(field),
		Tolerance: tol,
		Points:    points,
		Domain:    analytics.Domain(points),
	})
}
