package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prodlens-io/prodlens/internal/analytics"
	"github.com/prodlens-io/prodlens/internal/api/middleware"
	"github.com/prodlens-io/prodlens/internal/fieldmap"
	"github.com/prodlens-io/prodlens/internal/normalize"
	"github.com/prodlens-io/prodlens/internal/snapshot"
	"github.com/prodlens-io/prodlens/internal/tolerance"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	config      *ServerConfig
	startTime   time.Time
	store       *snapshot.Store
	fieldConfig *fieldmap.Config
	resolver    *fieldmap.Resolver
	tolerances  *tolerance.Resolver
	evaluator   *analytics.Evaluator
	apiKeys     *middleware.KeySet
	rateLimiter middleware.RateLimiter
}

// NewServer creates a new HTTP server instance with structured logging and
// the full middleware stack.
//
// Dependencies are injected explicitly rather than being part of
// ServerConfig: configuration (what) is separated from dependencies (how).
//
// Parameters:
//   - cfg: Pure server configuration (ports, timeouts, CORS settings)
//   - fieldConfig: Field alias/label/tolerance configuration (never nil)
//   - store: Snapshot store holding the working data set
//   - apiKeys: Configured API keys (nil disables authentication)
//   - rateLimiter: Rate limiter implementation (nil disables rate limiting)
func NewServer(
	cfg *ServerConfig,
	fieldConfig *fieldmap.Config,
	store *snapshot.Store,
	apiKeys *middleware.KeySet,
	rateLimiter middleware.RateLimiter,
) *Server {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	tolerances := tolerance.NewDefaultResolver()
	if len(fieldConfig.ToleranceCategories) > 0 {
		tolerances = tolerance.NewResolver(fieldConfig.ToleranceCategories...)
	}

	mux := http.NewServeMux()

	server := &Server{
		logger:      logger,
		config:      cfg,
		store:       store,
		fieldConfig: fieldConfig,
		resolver:    fieldmap.NewResolver(fieldConfig),
		tolerances:  tolerances,
		evaluator:   analytics.NewEvaluator(tolerances),
		apiKeys:     apiKeys,
		rateLimiter: rateLimiter,
	}

	server.setupRoutes(mux)

	if apiKeys != nil { // pragma: allowlist secret
		logger.Info("API key authentication middleware enabled")
	} else {
		logger.Warn("API keys not configured - authentication middleware disabled")
	}

	if rateLimiter != nil {
		logger.Info("Rate limiting middleware enabled")
	} else {
		logger.Warn("RateLimiter not configured - rate limiting middleware disabled")
	}

	// Apply middleware chain using functional options pattern.
	// Middleware executes in the order listed (top-to-bottom):
	//   1. CorrelationID - generate correlation ID for all responses
	//   2. Recovery - catch panics in all downstream middleware
	//   3. API key auth - identify the calling client (optional)
	//   4. RateLimit - block requests before expensive pipeline runs (optional)
	//   5. RequestLogger - log only legitimate requests (not rate-limited spam)
	//   6. CORS - lightweight header manipulation
	handler := middleware.Apply(mux,
		middleware.WithCorrelationID(),
		middleware.WithRecovery(logger),
		middleware.WithAPIKeyAuth(apiKeys, logger),
		middleware.WithRateLimit(rateLimiter, logger),
		middleware.WithRequestLogger(logger),
		middleware.WithCORS(cfg.ToCORSConfig()),
	)

	server.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server
}

// pipeline materializes the normalization pipeline over the current snapshot.
//
// The catalog depends on the machines and labels of the snapshot, so it is
// rebuilt per run; the alias resolver and tolerance table are fixed at boot.
func (s *Server) pipeline() (snapshot.Snapshot, *fieldmap.Catalog, []normalize.Record) {
	view := s.store.View()

	labels := make(map[string]string, len(s.fieldConfig.Labels)+len(view.Labels))
	for key, label := range s.fieldConfig.Labels {
		labels[key] = label
	}

	for key, label := range view.Labels {
		labels[key] = label
	}

	catalog := fieldmap.BuildCatalog(view.Machines, labels)
	normalizer := normalize.NewNormalizer(s.resolver, catalog)

	return view, catalog, normalizer.NormalizeAll(view.Records)
}

// Start starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT and SIGTERM signals.
func (s *Server) Start() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	// Record server start time for uptime calculation
	s.startTime = time.Now()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("Starting ProdLens API server",
			slog.String("address", s.config.Address()),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server failed to start",
				slog.String("address", s.config.Address()),
				slog.String("error", err.Error()),
			)

			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		return err
	case sig := <-stop:
		s.logger.Info("Received shutdown signal",
			slog.String("signal", sig.String()),
		)

		return s.shutdown()
	}
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Initiating server shutdown",
		slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
	)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed",
			slog.String("error", err.Error()),
			slog.Duration("shutdown_timeout", s.config.ShutdownTimeout),
		)

		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Close rate limiter to stop its background cleanup goroutine
	if s.rateLimiter != nil {
		if limiter, ok := s.rateLimiter.(io.Closer); ok {
			if err := limiter.Close(); err != nil {
				s.logger.Error("Failed to close rate limiter", slog.String("error", err.Error()))
			} else {
				s.logger.Info("Rate limiter closed successfully")
			}
		}
	}

	s.logger.Info("Server shutdown completed successfully")

	return nil
}
