package middleware

import (
	"time"

	"github.com/prodlens-io/prodlens/internal/config"
)

// Config holds rate limiter configuration.
//
// Rate limits specify requests per second for three tiers:
//   - Global: applied to all requests
//   - Per-client: applied to authenticated requests
//   - Unauthenticated: applied to requests without an API key
//
// Burst fields of 0 are computed automatically as 2 × rate.
type Config struct {
	GlobalRPS int
	ClientRPS int
	UnAuthRPS int

	GlobalBurst int
	ClientBurst int
	UnAuthBurst int

	// Memory cleanup configuration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	MaxClients      int
}

// LoadConfig loads middleware config from environment variables with
// fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		GlobalRPS: config.GetEnvInt("PRODLENS_GLOBAL_RPS", defaultGlobalRPS),
		ClientRPS: config.GetEnvInt("PRODLENS_CLIENT_RPS", defaultClientRPS),
		UnAuthRPS: config.GetEnvInt("PRODLENS_UNAUTH_RPS", defaultUnAuthRPS),

		// Burst overrides (0 = auto-compute)
		GlobalBurst: config.GetEnvInt("PRODLENS_GLOBAL_BURST", 0),
		ClientBurst: config.GetEnvInt("PRODLENS_CLIENT_BURST", 0),
		UnAuthBurst: config.GetEnvInt("PRODLENS_UNAUTH_BURST", 0),

		CleanupInterval: config.GetEnvDuration(
			"PRODLENS_RATE_LIMIT_CLEANUP_INTERVAL", limiterCleanupInterval,
		),
		IdleTimeout: config.GetEnvDuration("PRODLENS_RATE_LIMIT_IDLE_TIMEOUT", limiterIdleTimeout),
		MaxClients:  config.GetEnvInt("PRODLENS_RATE_LIMIT_MAX_CLIENTS", maxTrackedClients),
	}
}
