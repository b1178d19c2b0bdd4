// Package attest provides signed safety verdicts for deduplication across services.
package attest

import (
	"context"
	"time"
)

// Attestation is a signed record that content passed a safety check. Callers
// can present it on later requests to skip a redundant re-check.
type Attestation struct {
	ID             string    `json:"id"`
	ContentHash    string    `json:"content_hash"`
	Safe           bool      `json:"safe"`
	RiskScore      float64   `json:"risk_score"`
	Recommendation string    `json:"recommendation"`
	Redacted       bool      `json:"redacted"`
	CheckedAt      time.Time `json:"checked_at"`
	CheckedBy      string    `json:"checked_by"`
	ExpiresAt      time.Time `json:"expires_at"`
	Signature      string    `json:"signature"`
}

// Attestor creates and verifies safety attestations.
type Attestor interface {
	// Create creates a new attestation for a completed safety check.
	Create(ctx context.Context, req CreateRequest) (*Attestation, error)

	// Verify verifies an attestation signature and validity.
	Verify(ctx context.Context, attestation *Attestation) error

	// CanSkip determines if a safety check can be skipped based on an
	// existing attestation.
	CanSkip(ctx context.Context, req SkipCheckRequest) (canSkip bool, reason string)
}

// CreateRequest contains inputs for creating an attestation.
type CreateRequest struct {
	Content        []byte
	Safe           bool
	RiskScore      float64
	Recommendation string
	Redacted       bool
	TTL            time.Duration
}

// SkipCheckRequest contains inputs for determining if a check can be skipped.
type SkipCheckRequest struct {
	Attestation *Attestation
	Content     []byte
}

// Signer signs attestations using HMAC.
type Signer interface {
	// Sign creates an HMAC signature for the attestation.
	Sign(attestation *Attestation) (string, error)

	// Verify verifies the attestation signature.
	Verify(attestation *Attestation) error
}

// Cache caches attestations for quick lookup.
type Cache interface {
	// Get retrieves an attestation by content hash.
	Get(ctx context.Context, contentHash string) (*Attestation, error)

	// Set stores an attestation.
	Set(ctx context.Context, attestation *Attestation) error

	// Delete removes an attestation.
	Delete(ctx context.Context, contentHash string) error
}

// AttestorConfig configures the attestor.
type AttestorConfig struct {
	ServiceID     string        `json:"service_id"`
	DefaultTTL    time.Duration `json:"default_ttl"`
	EnableCaching bool          `json:"enable_caching"`
}

// DefaultAttestorConfig returns default attestor configuration.
func DefaultAttestorConfig() *AttestorConfig {
	return &AttestorConfig{
		ServiceID:     "sendguard",
		DefaultTTL:    5 * time.Minute,
		EnableCaching: true,
	}
}

// Header constants for HTTP propagation.
const (
	HeaderAttestation = "X-SendGuard-Attestation"
	HeaderStatus      = "X-SendGuard-Status"
	HeaderReportID    = "X-SendGuard-Report-ID"
)

// Status values for the status header.
const (
	StatusSafe    = "safe"
	StatusUnsafe  = "unsafe"
	StatusSkipped = "skipped"
)
