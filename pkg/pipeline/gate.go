// Package pipeline orchestrates the send-safety workflow.
package pipeline

import (
	"context"
	"time"

	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/pii"
)

// Gate is the main entry point for outbound message checking.
type Gate interface {
	// Check performs the full send-safety pipeline:
	// attestation skip -> validate -> redact -> attest -> alert -> stream.
	Check(ctx context.Context, req CheckRequest) (*CheckResult, error)

	// Verify verifies an attestation is valid.
	Verify(attestation *attest.Attestation) (bool, error)

	// Close releases resources.
	Close() error
}

// CheckRequest contains all inputs for an outbound message check.
type CheckRequest struct {
	// Content of the outbound message.
	Content string `json:"content"`

	// Channel the message would be sent through, e.g. "email", "sms".
	Channel string `json:"channel"`

	// Existing attestation from an earlier check, if any.
	Attestation *attest.Attestation `json:"attestation,omitempty"`

	// Redact requests a redacted copy of the content in the result.
	Redact bool `json:"redact,omitempty"`

	// StrictMode marks the verdict unsafe when any category is detected,
	// regardless of the risk score.
	StrictMode bool `json:"strict_mode,omitempty"`

	// SkipStreaming suppresses the audit event for this check.
	SkipStreaming bool `json:"skip_streaming,omitempty"`
}

// CheckResult contains the output of an outbound message check.
type CheckResult struct {
	// ReportID identifies this check in audit streams and alerts.
	ReportID string `json:"report_id"`

	// Skip information
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`

	// Report is the safety verdict for the content.
	Report pii.SafetyReport `json:"report"`

	// Blocked is true when the verdict says the message must not be sent.
	Blocked bool `json:"blocked"`

	// Redacted content, present when requested.
	RedactedContent string           `json:"redacted_content,omitempty"`
	RedactionMap    pii.RedactionMap `json:"redaction_map,omitempty"`

	// Attestation for downstream services.
	Attestation *attest.Attestation `json:"attestation,omitempty"`

	// Performance metrics
	Metrics CheckMetrics `json:"metrics"`
}

// CheckMetrics contains performance information for a check.
type CheckMetrics struct {
	TotalDuration    time.Duration `json:"total_duration"`
	ValidateDuration time.Duration `json:"validate_duration"`
	RedactDuration   time.Duration `json:"redact_duration,omitempty"`
	AttestDuration   time.Duration `json:"attest_duration,omitempty"`

	ContentSize        int  `json:"content_size"`
	DetectionCount     int  `json:"detection_count"`
	AttestationSkipped bool `json:"attestation_skipped"`
}

// GateConfig configures the gate.
type GateConfig struct {
	// Service identification
	ServiceID string `json:"service_id"`

	// Feature toggles
	EnableAttestation bool `json:"enable_attestation"`
	EnableStreaming   bool `json:"enable_streaming"`
	EnableAlerting    bool `json:"enable_alerting"`
	HonorAttestations bool `json:"honor_attestations"`

	// Attestation settings
	AttestationTTL time.Duration `json:"attestation_ttl"`

	// Timeouts
	AlertTimeout time.Duration `json:"alert_timeout"`
}

// DefaultGateConfig returns default gate configuration.
func DefaultGateConfig() *GateConfig {
	return &GateConfig{
		ServiceID:         "sendguard",
		EnableAttestation: true,
		EnableStreaming:   true,
		EnableAlerting:    true,
		HonorAttestations: true,
		AttestationTTL:    5 * time.Minute,
		AlertTimeout:      10 * time.Second,
	}
}
