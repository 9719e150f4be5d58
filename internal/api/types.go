package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prodlens-io/prodlens/internal/analytics"
	"github.com/prodlens-io/prodlens/internal/api/middleware"
	"github.com/prodlens-io/prodlens/internal/measurement"
	"github.com/prodlens-io/prodlens/internal/normalize"
	"github.com/prodlens-io/prodlens/internal/tolerance"
)

// ServiceName identifies this service in health and version responses.
const ServiceName = "prodlens"

// BuildVersion is the service version, overridden at build time via
// -ldflags "-X github.com/prodlens-io/prodlens/internal/api.BuildVersion=...".
var BuildVersion = "dev" //nolint: gochecknoglobals

type (
	// Version represents the API version response structure.
	Version struct {
		Version     string `json:"version"`
		ServiceName string `json:"serviceName"`
		BuildInfo   string `json:"buildInfo,omitempty"`
	}

	// HealthStatus represents the health check response structure.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}

	// RecordsRequest is the payload for appending raw records.
	RecordsRequest struct {
		Records []measurement.RawRecord `json:"records"`
	}

	// IngestResponse reports the outcome of a snapshot replace or record
	// append.
	IngestResponse struct {
		Status      string `json:"status"`
		RecordCount int    `json:"recordCount"`
	}

	// LogEntry is one normalized record paired with its deviation assessment.
	LogEntry struct {
		normalize.Record

		// Deviations maps canonical field key to its classified deviation.
		Deviations map[string]tolerance.Deviation `json:"deviations"`

		// HasAlert is true when any field of the record is in alert.
		HasAlert bool `json:"hasAlert"`
	}

	// LogsResponse is the filtered, recency-sorted log listing.
	LogsResponse struct {
		Records []LogEntry `json:"records"`
		Total   int        `json:"total"`
	}

	// SeriesResponse is the chart-ready projection of one field.
	SeriesResponse struct {
		Field     string                 `json:"field"`
		Label     string                 `json:"label"`
		Tolerance float64                `json:"tolerance"`
		Points    []analytics.ChartPoint `json:"points"`
		Domain    analytics.AxisDomain   `json:"domain"`
	}
)

// writeJSONResponse writes a JSON response with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response",
			slog.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("encode_error", err),
		)
	}
}

// parseFilter builds the log filter from query parameters.
// Returns a problem detail when a date parameter is malformed.
func parseFilter(r *http.Request) (analytics.Filter, *ProblemDetail) {
	query := r.URL.Query()

	filter := analytics.Filter{
		Search:    query.Get("search"),
		Product:   query.Get("product"),
		MachineID: query.Get("machine"),
	}

	if raw := query.Get("start"); raw != "" {
		start, err := parseQueryDate(raw)
		if err != nil {
			return filter, BadRequest("start must be a YYYY-MM-DD date")
		}

		filter.Start = start
	}

	if raw := query.Get("end"); raw != "" {
		end, err := parseQueryDate(raw)
		if err != nil {
			return filter, BadRequest("end must be a YYYY-MM-DD date")
		}

		filter.End = end
	}

	return filter, nil
}

// parseQueryDate parses a YYYY-MM-DD query value in local time, matching the
// day granularity of the date-range filter.
func parseQueryDate(value string) (*time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}
