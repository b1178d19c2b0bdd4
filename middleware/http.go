// Package middleware provides HTTP and gRPC middleware for integrating sendguard.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/pipeline"
)

// HTTPConfig configures the HTTP guard middleware.
type HTTPConfig struct {
	// Channel reported on checks originating from this middleware.
	Channel string `json:"channel"`

	// Header extraction
	RequestIDHeader string `json:"request_id_header"`

	// Behavior
	BlockOnUnsafe     bool `json:"block_on_unsafe"`
	InjectAttestation bool `json:"inject_attestation"`

	// Exemptions
	ExemptPaths   []string `json:"exempt_paths"`
	ExemptMethods []string `json:"exempt_methods"`
}

// DefaultHTTPConfig returns default HTTP middleware configuration.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Channel:           "http",
		RequestIDHeader:   "X-Request-ID",
		BlockOnUnsafe:     true,
		InjectAttestation: true,
		ExemptPaths:       []string{"/health", "/healthz", "/metrics"},
		ExemptMethods:     []string{"OPTIONS"},
	}
}

// GuardResult contains the result of middleware processing, available to
// downstream handlers via the request context.
type GuardResult struct {
	Blocked     bool
	BlockReason string
	Report      pii.SafetyReport
	Attestation *attest.Attestation
}

type contextKey string

const guardResultKey contextKey = "sendguard_result"

// GetGuardResult returns the guard result stored on the request context, or
// nil when the middleware did not run for this request.
func GetGuardResult(r *http.Request) *GuardResult {
	result, ok := r.Context().Value(guardResultKey).(*GuardResult)
	if !ok {
		return nil
	}
	return result
}

// GuardMiddleware returns middleware that checks request bodies through the
// gate before they reach the wrapped handler. Unsafe content is rejected with
// 403 when BlockOnUnsafe is set.
func GuardMiddleware(gate pipeline.Gate, config *HTTPConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path, config.ExemptPaths) || isExemptMethod(r.Method, config.ExemptMethods) {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					http.Error(w, "failed to read request body", http.StatusBadRequest)
					return
				}
				r.Body.Close()
				// Restore the body for the downstream handler
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			if len(body) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			checkReq := pipeline.CheckRequest{
				Content: string(body),
				Channel: config.Channel,
			}
			if encoded := r.Header.Get(attest.HeaderAttestation); encoded != "" {
				if existing, err := attest.DecodeAttestation(encoded); err == nil {
					checkReq.Attestation = existing
				}
			}

			result, err := gate.Check(r.Context(), checkReq)
			if err != nil {
				http.Error(w, "safety check failed", http.StatusInternalServerError)
				return
			}

			guardResult := &GuardResult{
				Blocked:     result.Blocked,
				BlockReason: result.Report.Recommendation,
				Report:      result.Report,
				Attestation: result.Attestation,
			}

			if result.Blocked && config.BlockOnUnsafe {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":      "content blocked",
					"reason":     result.Report.Recommendation,
					"request_id": r.Header.Get(config.RequestIDHeader),
				})
				return
			}

			if config.InjectAttestation && result.Attestation != nil {
				if encoded, err := attest.EncodeAttestation(result.Attestation); err == nil {
					r.Header.Set(attest.HeaderAttestation, encoded)
				}
			}

			ctx := context.WithValue(r.Context(), guardResultKey, guardResult)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isExemptPath reports whether path matches any exempt path, case-insensitively.
func isExemptPath(path string, exemptPaths []string) bool {
	for _, exempt := range exemptPaths {
		if strings.EqualFold(path, exempt) {
			return true
		}
	}
	return false
}

// isExemptMethod reports whether method matches any exempt method, case-insensitively.
func isExemptMethod(method string, exemptMethods []string) bool {
	for _, exempt := range exemptMethods {
		if strings.EqualFold(method, exempt) {
			return true
		}
	}
	return false
}
