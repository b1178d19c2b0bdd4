package attest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// hmacSigner implements the Signer interface using HMAC-SHA256.
type hmacSigner struct {
	key []byte
}

// NewHMACSigner creates a new HMAC-SHA256 signer with the given key.
func NewHMACSigner(key []byte) Signer {
	return &hmacSigner{key: key}
}

// Sign creates an HMAC-SHA256 signature for the attestation.
// It builds a canonical string from the attestation fields and computes the HMAC.
func (s *hmacSigner) Sign(attestation *Attestation) (string, error) {
	if attestation == nil {
		return "", fmt.Errorf("attestation is nil")
	}

	canonical := buildCanonicalString(attestation)

	mac := hmac.New(sha256.New, s.key)
	_, err := mac.Write([]byte(canonical))
	if err != nil {
		return "", fmt.Errorf("failed to compute HMAC: %w", err)
	}

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify verifies the attestation signature using constant-time comparison.
func (s *hmacSigner) Verify(attestation *Attestation) error {
	if attestation == nil {
		return fmt.Errorf("attestation is nil")
	}

	expected, err := s.Sign(attestation)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	expectedBytes, err := hex.DecodeString(expected)
	if err != nil {
		return fmt.Errorf("failed to decode expected signature: %w", err)
	}

	actualBytes, err := hex.DecodeString(attestation.Signature)
	if err != nil {
		return fmt.Errorf("failed to decode attestation signature: %w", err)
	}

	if !hmac.Equal(expectedBytes, actualBytes) {
		return fmt.Errorf("attestation signature verification failed")
	}

	return nil
}

// buildCanonicalString creates a deterministic string from attestation fields
// for HMAC computation. Format:
// id|content_hash|checked_by|checked_at_unix|expires_at_unix|safe|risk_score
func buildCanonicalString(a *Attestation) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%t|%.4f",
		a.ID,
		a.ContentHash,
		a.CheckedBy,
		a.CheckedAt.Unix(),
		a.ExpiresAt.Unix(),
		a.Safe,
		a.RiskScore,
	)
}
