package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prodlens-io/prodlens/internal/api/middleware"
)

const expectedURLParts = 2

// Route represents an HTTP route configuration with a path and handler.
// Used for declarative route registration with middleware bypass support.
type Route struct {
	Path    string           // The URL path for this route (e.g., "GET /ping")
	Handler http.HandlerFunc // The HTTP handler function for this route
}

// setupRoutes sets up all HTTP routes for the API server.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Public liveness endpoints
	s.registerPublicRoutes(
		mux,
		Route{"GET /ping", s.handlePing},
		Route{"GET /api/v1/health", s.handleHealth},
		Route{"GET /api/v1/version", s.handleVersion},
		Route{"/", s.handleNotFound}, // Catch-all handler for 404 responses
	)

	// Snapshot ingestion
	mux.HandleFunc("PUT /api/v1/snapshot", s.handlePutSnapshot)
	mux.HandleFunc("POST /api/v1/records", s.handlePostRecords)

	// Dashboard pipeline reads
	mux.HandleFunc("GET /api/v1/dashboard/stats", s.handleDashboardStats)
	mux.HandleFunc("GET /api/v1/dashboard/logs", s.handleDashboardLogs)
	mux.HandleFunc("GET /api/v1/dashboard/series", s.handleDashboardSeries)
}

// registerPublicRoutes registers HTTP routes that bypass authentication and
// rate limiting.
//
// Public routes should only be used for liveness endpoints that need to stay
// reachable without an API key. Never register pipeline endpoints here.
func (s *Server) registerPublicRoutes(mux *http.ServeMux, routes ...Route) {
	validHTTPMethods := map[string]bool{
		"GET":    true,
		"POST":   true,
		"PUT":    true,
		"PATCH":  true,
		"DELETE": true,
	}

	for _, route := range routes {
		mux.Handle(route.Path, route.Handler)

		// Strip the method prefix for bypass registration: Go 1.22+ routing
		// patterns carry "GET /path", but r.URL.Path is just "/path".
		path := route.Path

		parts := strings.Fields(path)
		if len(parts) == expectedURLParts && validHTTPMethods[parts[0]] {
			path = strings.TrimSpace(parts[1])
		}

		if path == "" {
			s.logger.Warn("Malformed route path detected, ignoring route", slog.String("path", route.Path))

			continue
		}

		middleware.RegisterPublicEndpoint(path)
	}
}

// handlePing responds to ping requests for basic server validation.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		s.logger.Error("Failed to write ping response",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
	}
}

// handleNotFound handles requests to unknown paths with an RFC 7807 response.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("The requested resource does not exist"))
}
