package api

import (
	"net/http"
	"runtime"
)

// handleVersion responds with the service version information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, http.StatusOK, Version{
		Version:     BuildVersion,
		ServiceName: ServiceName,
		BuildInfo:   runtime.Version(),
	})
}
