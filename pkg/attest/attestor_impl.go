package attest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// defaultAttestor implements the Attestor interface combining signer and cache.
type defaultAttestor struct {
	signer Signer
	cache  Cache
	config *AttestorConfig
}

// NewAttestor creates a new Attestor with an HMAC signer and memory cache.
func NewAttestor(signingKey []byte, config *AttestorConfig) Attestor {
	if config == nil {
		config = DefaultAttestorConfig()
	}
	return &defaultAttestor{
		signer: NewHMACSigner(signingKey),
		cache:  NewMemoryCache(),
		config: config,
	}
}

// NewAttestorWithComponents creates a new Attestor with provided signer and cache.
func NewAttestorWithComponents(signer Signer, cache Cache, config *AttestorConfig) Attestor {
	if config == nil {
		config = DefaultAttestorConfig()
	}
	return &defaultAttestor{
		signer: signer,
		cache:  cache,
		config: config,
	}
}

// Create creates a new attestation for a completed safety check.
func (a *defaultAttestor) Create(ctx context.Context, req CreateRequest) (*Attestation, error) {
	contentHash := computeContentHash(req.Content)

	ttl := req.TTL
	if ttl == 0 {
		ttl = a.config.DefaultTTL
	}

	now := time.Now()

	attestation := &Attestation{
		ID:             uuid.New().String(),
		ContentHash:    contentHash,
		Safe:           req.Safe,
		RiskScore:      req.RiskScore,
		Recommendation: req.Recommendation,
		Redacted:       req.Redacted,
		CheckedAt:      now,
		CheckedBy:      a.config.ServiceID,
		ExpiresAt:      now.Add(ttl),
	}

	sig, err := a.signer.Sign(attestation)
	if err != nil {
		return nil, fmt.Errorf("failed to sign attestation: %w", err)
	}
	attestation.Signature = sig

	if a.config.EnableCaching {
		if err := a.cache.Set(ctx, attestation); err != nil {
			// Cache failure is non-fatal
			_ = err
		}
	}

	return attestation, nil
}

// Verify verifies an attestation signature and checks that it has not expired.
func (a *defaultAttestor) Verify(_ context.Context, attestation *Attestation) error {
	if attestation == nil {
		return fmt.Errorf("attestation is nil")
	}

	if time.Now().After(attestation.ExpiresAt) {
		return fmt.Errorf("attestation has expired at %s", attestation.ExpiresAt.Format(time.RFC3339))
	}

	if err := a.signer.Verify(attestation); err != nil {
		return fmt.Errorf("attestation signature invalid: %w", err)
	}

	return nil
}

// CanSkip determines if a safety check can be skipped based on an existing
// attestation. Returns (true, reason) if the check can be skipped. Only safe
// verdicts are skippable; unsafe content is always re-checked.
func (a *defaultAttestor) CanSkip(ctx context.Context, req SkipCheckRequest) (bool, string) {
	if req.Attestation == nil {
		return false, ""
	}

	if err := a.signer.Verify(req.Attestation); err != nil {
		return false, ""
	}

	contentHash := computeContentHash(req.Content)
	if req.Attestation.ContentHash != contentHash {
		return false, ""
	}

	if !req.Attestation.Safe {
		return false, ""
	}

	if time.Now().After(req.Attestation.ExpiresAt) {
		return false, ""
	}

	if a.config.EnableCaching {
		cached, err := a.cache.Get(ctx, contentHash)
		if err == nil && cached != nil {
			return true, fmt.Sprintf("valid attestation from %s (cached, risk=%.2f)",
				req.Attestation.CheckedBy, req.Attestation.RiskScore)
		}
	}

	return true, fmt.Sprintf("valid attestation from %s (risk=%.2f)",
		req.Attestation.CheckedBy, req.Attestation.RiskScore)
}

// computeContentHash returns the hex-encoded SHA-256 hash of content.
func computeContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
