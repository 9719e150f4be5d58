package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// publicEndpoints defines endpoints that bypass authentication.
// Populated once during route registration, before the server starts
// serving, so the map needs no locking.
var publicEndpoints = map[string]bool{} //nolint: gochecknoglobals

// RegisterPublicEndpoint marks a path as reachable without an API key.
// Only liveness endpoints should ever be registered here.
func RegisterPublicEndpoint(endpoint string) {
	publicEndpoints[endpoint] = true
}

// Authentication error types for granular error handling.
var (
	// ErrMissingAPIKey is returned when no API key is provided in headers.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidAPIKey is returned for invalid API key format or no match.
	// Generic error prevents enumeration attacks.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrMalformedKeyEntry is returned when a configured key entry does not
	// have the name:bcrypt-hash shape.
	ErrMalformedKeyEntry = errors.New("malformed API key entry")
)

type (
	// HashedKey is one configured API key: a client name and the bcrypt hash
	// of the key material. The plaintext key is never stored.
	HashedKey struct {
		Name string
		Hash []byte
	}

	// KeySet holds the configured API keys. Immutable after construction.
	KeySet struct {
		keys []HashedKey
	}

	// AuthError represents an authentication error with a specific type.
	AuthError struct {
		Type    error
		Message string
	}

	// clientKey is the context key for the authenticated client name.
	clientKey struct{}
)

// NewKeySet creates a key set from configured entries. Returns nil when no
// entries are given, which disables authentication.
func NewKeySet(keys ...HashedKey) *KeySet {
	if len(keys) == 0 {
		return nil
	}

	return &KeySet{keys: keys}
}

// ParseKeyList parses configured key entries of the form "name:bcrypt-hash".
// Bcrypt hashes contain no colon, so the first colon splits name from hash.
func ParseKeyList(entries []string) ([]HashedKey, error) {
	keys := make([]HashedKey, 0, len(entries))

	for _, entry := range entries {
		name, hash, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(name) == "" || strings.TrimSpace(hash) == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedKeyEntry, entry)
		}

		keys = append(keys, HashedKey{
			Name: strings.TrimSpace(name),
			Hash: []byte(strings.TrimSpace(hash)),
		})
	}

	return keys, nil
}

// Authenticate checks a candidate key against every configured hash and
// returns the matching client name. bcrypt comparison is constant-time per
// hash; a dummy comparison runs when the set is empty so that missing
// configuration does not change the timing profile.
func (k *KeySet) Authenticate(candidate string) (string, bool) {
	if k == nil || len(k.keys) == 0 {
		performDummyBcryptComparison()

		return "", false
	}

	for _, key := range k.keys {
		if bcrypt.CompareHashAndPassword(key.Hash, []byte(candidate)) == nil {
			return key.Name, true
		}
	}

	return "", false
}

// Error implements the error interface for AuthError.
func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed: %s: %s", e.Type.Error(), e.Message)
	}

	return "authentication failed: " + e.Type.Error()
}

// Unwrap returns the wrapped error type, enabling standard errors.Is() behavior.
func (e *AuthError) Unwrap() error {
	return e.Type
}

// APIKeyAuth creates an authentication middleware that validates API keys
// against the configured key set.
//
// The middleware:
//   - Lets registered public endpoints through untouched
//   - Extracts the key from X-Api-Key (primary) or Authorization: Bearer
//   - Enriches the request context with the authenticated client name
//   - Returns RFC 7807 compliant error responses on failure
func APIKeyAuth(keys *KeySet, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicEndpoints[r.URL.Path] {
				next.ServeHTTP(w, r)

				return
			}

			authStart := time.Now()

			apiKey, found := extractAPIKey(r)
			if !found {
				performDummyBcryptComparison()
				writeAuthError(w, r, logger, &AuthError{
					Type:    ErrMissingAPIKey,
					Message: "Missing API key",
				})

				return
			}

			client, ok := keys.Authenticate(apiKey)
			if !ok {
				writeAuthError(w, r, logger, &AuthError{
					Type:    ErrInvalidAPIKey,
					Message: "Invalid API key",
				})

				return
			}

			logger.Info("API key authenticated",
				slog.String("client", client),
				slog.Duration("auth_latency", time.Since(authStart)),
				slog.String("correlation_id", GetCorrelationID(r.Context())),
				slog.String("endpoint", r.URL.Path),
			)

			ctx := context.WithValue(r.Context(), clientKey{}, client)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClient extracts the authenticated client name from the request context.
// Returns "" when the request was not authenticated (auth disabled or a
// public endpoint).
func GetClient(ctx context.Context) string {
	if client, ok := ctx.Value(clientKey{}).(string); ok {
		return client
	}

	return ""
}

// extractAPIKey extracts the API key from request headers.
// X-Api-Key takes precedence over Authorization: Bearer.
func extractAPIKey(r *http.Request) (string, bool) {
	if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" {
		return validateAPIKey(apiKey)
	}

	authHeader := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authHeader, "Bearer "); found {
		return validateAPIKey(token)
	}

	return "", false
}

// validateAPIKey validates and cleans an API key value.
// Keys containing newlines are rejected (header injection prevention).
func validateAPIKey(key string) (string, bool) {
	if strings.ContainsAny(key, "\r\n") {
		return "", false
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}

	return key, true
}

// performDummyBcryptComparison keeps the no-key and unknown-key paths close
// to the known-key path in timing.
func performDummyBcryptComparison() {
	_ = bcrypt.CompareHashAndPassword([]byte("dummy"), []byte("dummy"))
}

// writeAuthError writes an RFC 7807 compliant authentication error response.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	correlationID := GetCorrelationID(r.Context())

	logger.Warn("Request authentication failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("correlation_id", correlationID),
		slog.String("error", err.Error()),
	)

	problemDetail := struct {
		Type          string `json:"type"`
		Title         string `json:"title"`
		Status        int    `json:"status"`
		Detail        string `json:"detail"`
		Instance      string `json:"instance"`
		CorrelationID string `json:"correlationId"`
	}{
		Type:          fmt.Sprintf("https://prodlens.io/problems/%d", http.StatusUnauthorized),
		Title:         "Unauthorized",
		Status:        http.StatusUnauthorized,
		Detail:        "A valid API key is required",
		Instance:      r.URL.Path,
		CorrelationID: correlationID,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="prodlens"`)
	w.WriteHeader(http.StatusUnauthorized)

	if encodeErr := json.NewEncoder(w).Encode(problemDetail); encodeErr != nil {
		logger.Error("Failed to encode error response",
			slog.Any("error", encodeErr),
			slog.String("correlation_id", correlationID),
		)
	}
}
