package api

import (
	"log/slog"
	"net/http"

	"github.com/prodlens-io/prodlens/internal/api/middleware"
)

// handlePostRecords appends raw records to the working snapshot without
// touching presets, machines, or labels. This is the incremental path: the
// capture app posts each newly extracted record as it is confirmed.
func (s *Server) handlePostRecords(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	var request RecordsRequest

	if problem := s.decodeRequest(w, r, &request); problem != nil {
		WriteErrorResponse(w, r, s.logger, problem)

		return
	}

	if len(request.Records) == 0 {
		WriteErrorResponse(w, r, s.logger, BadRequest("records must contain at least one record"))

		return
	}

	if err := s.store.AppendRecords(request.Records...); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest(err.Error()))

		return
	}

	s.logger.Info("Records appended",
		slog.String("correlation_id", correlationID),
		slog.Int("appended", len(request.Records)),
		slog.Int("total", s.store.RecordCount()),
	)

	s.writeJSONResponse(w, r, http.StatusAccepted, IngestResponse{
		Status:      "accepted",
		RecordCount: s.store.RecordCount(),
	})
}
