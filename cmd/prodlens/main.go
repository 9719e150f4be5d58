// Package main provides the ProdLens measurement analytics service.
//
// ProdLens normalizes raw production measurement records (differently aliased
// and localized field names, comma decimals, day-first timestamps) and serves
// filtered logs, deviation classifications, chart-ready series, and rolling
// production counters over HTTP.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/prodlens-io/prodlens/internal/api"
	"github.com/prodlens-io/prodlens/internal/api/middleware"
	"github.com/prodlens-io/prodlens/internal/fieldmap"
	"github.com/prodlens-io/prodlens/internal/snapshot"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", api.ServiceName, api.BuildVersion)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("Starting ProdLens service",
		slog.String("service", api.ServiceName),
		slog.String("version", api.BuildVersion),
	)

	logger.Info("Loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	// Field mapping config is optional; built-in alias and label tables
	// cover the standard capture layout.
	fieldConfig, err := fieldmap.LoadConfigFromEnv()
	if err != nil {
		logger.Error("Failed to load field mapping configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Field mapping configuration loaded",
		slog.Int("record_aliases", len(fieldConfig.RecordAliases)),
		slog.Int("field_aliases", len(fieldConfig.FieldAliases)),
		slog.Int("labels", len(fieldConfig.Labels)),
		slog.Int("tolerance_categories", len(fieldConfig.ToleranceCategories)),
	)

	// Create rate limiter instance (graceful shutdown handled by server.shutdown())
	middlewareConfig := middleware.LoadConfig()
	rateLimiter := middleware.NewInMemoryRateLimiter(middlewareConfig)

	logger.Info("Rate limiter initialized",
		slog.Int("global_rps", middlewareConfig.GlobalRPS),
		slog.Int("client_rps", middlewareConfig.ClientRPS),
		slog.Int("unauth_rps", middlewareConfig.UnAuthRPS),
	)

	var apiKeys *middleware.KeySet

	if len(serverConfig.APIKeys) > 0 {
		keys, err := middleware.ParseKeyList(serverConfig.APIKeys)
		if err != nil {
			logger.Error("Failed to parse API keys", slog.String("error", err.Error()))
			os.Exit(1)
		}

		apiKeys = middleware.NewKeySet(keys...)

		logger.Info("API key authentication enabled", slog.Int("keys", len(keys)))
	} else {
		logger.Warn("API key authentication disabled",
			slog.String("security", "Only use in trusted networks (localhost, VPN, internal)"),
			slog.String("note", "Set PRODLENS_API_KEYS to name:bcrypt-hash entries to enable authentication"),
		)
	}

	store := snapshot.NewStore()

	server := api.NewServer(serverConfig, fieldConfig, store, apiKeys, rateLimiter)

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("ProdLens service stopped")
}
