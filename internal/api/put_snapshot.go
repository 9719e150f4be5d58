package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prodlens-io/prodlens/internal/api/middleware"
	"github.com/prodlens-io/prodlens/internal/snapshot"
)

// handlePutSnapshot replaces the full working snapshot: records, presets,
// machines, and labels in one upload, the way the capture app syncs its
// sheet export.
//
// Presets and machines arriving without an ID get a generated one. A
// validation failure anywhere in the payload rejects the whole upload and
// leaves the previous snapshot serving.
func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	var snap snapshot.Snapshot

	if problem := s.decodeRequest(w, r, &snap); problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	if err := s.store.Replace(snap); err != nil {
		s.logger.Warn("Snapshot upload rejected",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)

		WriteErrorResponse(w, r, s.logger, BadRequest(err.Error()))

		return
	}

	s.logger.Info("Snapshot replaced",
		slog.String("correlation_id", correlationID),
		slog.Int("records", len(snap.Records)),
		slog.Int("presets", len(snap.Presets)),
		slog.Int("machines", len(snap.Machines)),
	)

	s.writeJSONResponse(w, r, http.StatusOK, IngestResponse{
		Status:      "replaced",
		RecordCount: s.store.RecordCount(),
	})
}

// decodeRequest decodes a JSON request body with the configured size limit.
// Returns a problem detail on failure, nil on success.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, target any) *ProblemDetail {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return RequestTooLarge("Request body exceeds the configured size limit")
		}

		return BadRequest("Request body is not valid JSON")
	}

	return nil
}
