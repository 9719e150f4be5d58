package api

import (
	"net/http"
	"time"
)

// handleHealth responds with the service health status.
//
// The service holds no external dependencies (the snapshot store is
// in-process memory), so health reduces to "the process is serving".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:      "healthy",
		ServiceName: ServiceName,
		Version:     BuildVersion,
	}

	if !s.startTime.IsZero() {
		status.Uptime = time.Since(s.startTime).Round(time.Second).String()
	}

	s.writeJSONResponse(w, r, http.StatusOK, status)
}
