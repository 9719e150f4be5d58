package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	burstCapacityMultiplier = 2
	defaultGlobalRPS        = 100
	defaultClientRPS        = 50
	defaultUnAuthRPS        = 10
	limiterCleanupInterval  = 5 * time.Minute
	limiterIdleTimeout      = 1 * time.Hour
	maxTrackedClients       = 100
)

type (
	// RateLimiter decides whether a request should be allowed.
	//
	// For authenticated requests, clientID identifies the caller; for
	// unauthenticated requests it is the empty string.
	RateLimiter interface {
		Allow(clientID string) bool
	}

	// InMemoryRateLimiter implements RateLimiter using golang.org/x/time/rate
	// token buckets in three tiers: a global limit over all traffic, a
	// per-client limit for authenticated callers, and a shared limit for
	// unauthenticated traffic.
	//
	// Idle client buckets are removed by a background cleanup goroutine; call
	// Close to stop it.
	InMemoryRateLimiter struct {
		global          *rate.Limiter
		perClient       map[string]*clientLimiter
		unauthenticated *rate.Limiter
		mu              sync.RWMutex
		cleanupTicker   *time.Ticker
		done            chan struct{}

		clientRPS       int
		clientBurst     int
		cleanupInterval time.Duration
		idleTimeout     time.Duration
		maxClients      int
	}

	// clientLimiter tracks rate limit state for a single client, with the
	// last access time for idle cleanup.
	clientLimiter struct {
		limiter    *rate.Limiter
		lastAccess time.Time
		mu         sync.Mutex
	}
)

// NewInMemoryRateLimiter creates an in-memory rate limiter from config.
// Burst capacity defaults to 2 × rate unless overridden.
func NewInMemoryRateLimiter(config *Config) *InMemoryRateLimiter {
	globalBurst := computeBurstCapacity(config.GlobalRPS, config.GlobalBurst)
	clientBurst := computeBurstCapacity(config.ClientRPS, config.ClientBurst)
	unauthBurst := computeBurstCapacity(config.UnAuthRPS, config.UnAuthBurst)

	limiter := &InMemoryRateLimiter{
		global:          rate.NewLimiter(rate.Limit(config.GlobalRPS), globalBurst),
		perClient:       make(map[string]*clientLimiter),
		unauthenticated: rate.NewLimiter(rate.Limit(config.UnAuthRPS), unauthBurst),
		done:            make(chan struct{}),
		clientRPS:       config.ClientRPS,
		clientBurst:     clientBurst,
		cleanupInterval: config.CleanupInterval,
		idleTimeout:     config.IdleTimeout,
		maxClients:      config.MaxClients,
	}

	limiter.startCleanup()

	return limiter
}

// computeBurstCapacity returns the override when set, else 2 × rate.
func computeBurstCapacity(rps, burstOverride int) int {
	if burstOverride > 0 {
		return burstOverride
	}

	return rps * burstCapacityMultiplier
}

// Allow reports whether a request from clientID may proceed.
//
// The global bucket is checked first so that aggregate load is bounded no
// matter how many distinct clients call in.
func (l *InMemoryRateLimiter) Allow(clientID string) bool {
	if !l.global.Allow() {
		return false
	}

	if clientID == "" {
		return l.unauthenticated.Allow()
	}

	return l.allowClient(clientID)
}

func (l *InMemoryRateLimiter) allowClient(clientID string) bool {
	l.mu.RLock()
	client, exists := l.perClient[clientID]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		// Re-check after acquiring the write lock
		client, exists = l.perClient[clientID]
		if !exists {
			// Cap tracked clients; overflow traffic shares the
			// unauthenticated bucket rather than growing the map
			if len(l.perClient) >= l.maxClients {
				l.mu.Unlock()

				return l.unauthenticated.Allow()
			}

			client = &clientLimiter{
				limiter:    rate.NewLimiter(rate.Limit(l.clientRPS), l.clientBurst),
				lastAccess: time.Now(),
			}
			l.perClient[clientID] = client
		}
		l.mu.Unlock()
	}

	client.mu.Lock()
	client.lastAccess = time.Now()
	client.mu.Unlock()

	return client.limiter.Allow()
}

// Close stops the background cleanup goroutine.
func (l *InMemoryRateLimiter) Close() error {
	close(l.done)

	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}

	return nil
}

func (l *InMemoryRateLimiter) startCleanup() {
	l.cleanupTicker = time.NewTicker(l.cleanupInterval)

	go func() {
		for {
			select {
			case <-l.cleanupTicker.C:
				l.removeIdleClients()
			case <-l.done:
				return
			}
		}
	}()
}

// removeIdleClients drops client buckets idle longer than the idle timeout.
func (l *InMemoryRateLimiter) removeIdleClients() {
	cutoff := time.Now().Add(-l.idleTimeout)

	l.mu.Lock()
	defer l.mu.Unlock()

	for clientID, client := range l.perClient {
		client.mu.Lock()
		idle := client.lastAccess.Before(cutoff)
		client.mu.Unlock()

		if idle {
			delete(l.perClient, clientID)
		}
	}
}

// RateLimit creates a middleware that enforces the rate limiter.
// Registered public endpoints bypass the limiter so that liveness probes
// keep working under load.
func RateLimit(limiter RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicEndpoints[r.URL.Path] {
				next.ServeHTTP(w, r)

				return
			}

			clientID := GetClient(r.Context())

			if !limiter.Allow(clientID) {
				writeRateLimitError(w, r, logger, clientID)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes an RFC 7807 compliant 429 response.
func writeRateLimitError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, clientID string) {
	correlationID := GetCorrelationID(r.Context())

	logger.Warn("Request rate limited",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("client", clientID),
		slog.String("correlation_id", correlationID),
	)

	problemDetail := struct {
		Type          string `json:"type"`
		Title         string `json:"title"`
		Status        int    `json:"status"`
		Detail        string `json:"detail"`
		Instance      string `json:"instance"`
		CorrelationID string `json:"correlationId"`
	}{
		Type:          fmt.Sprintf("https://prodlens.io/problems/%d", http.StatusTooManyRequests),
		Title:         "Too Many Requests",
		Status:        http.StatusTooManyRequests,
		Detail:        "Request rate limit exceeded, retry later",
		Instance:      r.URL.Path,
		CorrelationID: correlationID,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(problemDetail); err != nil {
		logger.Error("Failed to encode error response",
			slog.Any("error", err),
			slog.String("correlation_id", correlationID),
		)
	}
}
