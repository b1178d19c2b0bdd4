package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaycrm/sendguard/pkg/alert"
	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/stream"
)

// defaultGate implements the Gate interface, orchestrating
// the validate -> attest -> alert -> stream pipeline.
type defaultGate struct {
	validator *pii.Validator
	redactor  *pii.Redactor
	attestor  attest.Attestor
	alerter   alert.Alerter
	streamer  stream.Streamer
	config    *GateConfig
}

// GateOption is a functional option for configuring a defaultGate.
type GateOption func(*defaultGate)

// WithRedactor sets the redactor used for redaction requests.
func WithRedactor(r *pii.Redactor) GateOption {
	return func(g *defaultGate) {
		g.redactor = r
	}
}

// WithAttestor sets the attestor on the gate.
func WithAttestor(a attest.Attestor) GateOption {
	return func(g *defaultGate) {
		g.attestor = a
	}
}

// WithAlerter sets the alerter used for blocked sends.
func WithAlerter(a alert.Alerter) GateOption {
	return func(g *defaultGate) {
		g.alerter = a
	}
}

// WithStreamer sets the streamer on the gate.
func WithStreamer(s stream.Streamer) GateOption {
	return func(g *defaultGate) {
		g.streamer = s
	}
}

// WithGateConfig sets the gate configuration.
func WithGateConfig(cfg *GateConfig) GateOption {
	return func(g *defaultGate) {
		if cfg != nil {
			g.config = cfg
		}
	}
}

// NewGate creates a new defaultGate with the given validator and options.
// The validator is required; all other components are optional.
func NewGate(validator *pii.Validator, opts ...GateOption) *defaultGate {
	g := &defaultGate{
		validator: validator,
		config:    DefaultGateConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check performs the full send-safety pipeline:
// check attestation -> validate -> redact -> create attestation -> alert -> stream.
func (g *defaultGate) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	startTime := time.Now()

	result := &CheckResult{
		ReportID: uuid.New().String(),
		Metrics: CheckMetrics{
			ContentSize: len(req.Content),
		},
	}

	// Step 1: Check existing attestation for skip
	if g.config.HonorAttestations && g.attestor != nil && req.Attestation != nil {
		canSkip, reason := g.attestor.CanSkip(ctx, attest.SkipCheckRequest{
			Attestation: req.Attestation,
			Content:     []byte(req.Content),
		})
		if canSkip {
			result.Skipped = true
			result.SkipReason = reason
			result.Attestation = req.Attestation
			result.Report = pii.SafetyReport{
				Safe:           true,
				RiskScore:      req.Attestation.RiskScore,
				Recommendation: req.Attestation.Recommendation,
			}
			result.Metrics.AttestationSkipped = true
			result.Metrics.TotalDuration = time.Since(startTime)
			return result, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: Validate content
	validateStart := time.Now()
	report := g.validator.Validate(req.Content, req.Channel)
	if req.StrictMode && len(report.PIIDetected) > 0 {
		report.Safe = false
	}
	result.Report = report
	result.Blocked = !report.Safe
	result.Metrics.ValidateDuration = time.Since(validateStart)
	for _, values := range report.PIIDetected {
		result.Metrics.DetectionCount += len(values)
	}

	// Step 3: Redact if requested
	if req.Redact && g.redactor != nil {
		redactStart := time.Now()
		result.RedactedContent, result.RedactionMap = g.redactor.Redact(req.Content)
		result.Metrics.RedactDuration = time.Since(redactStart)
	}

	// Step 4: Create attestation if enabled
	if g.config.EnableAttestation && g.attestor != nil {
		attestStart := time.Now()

		attestation, err := g.attestor.Create(ctx, attest.CreateRequest{
			Content:        []byte(req.Content),
			Safe:           report.Safe,
			RiskScore:      report.RiskScore,
			Recommendation: report.Recommendation,
			Redacted:       req.Redact,
			TTL:            g.config.AttestationTTL,
		})
		if err == nil {
			result.Attestation = attestation
		}

		result.Metrics.AttestDuration = time.Since(attestStart)
	}

	// Step 5: Alert on blocked sends
	if g.config.EnableAlerting && g.alerter != nil && result.Blocked {
		block := alert.BlockAlert{
			ReportID:       result.ReportID,
			Channel:        req.Channel,
			RiskScore:      report.RiskScore,
			Recommendation: report.Recommendation,
			Warnings:       report.Warnings,
			CategoryCounts: categoryCounts(report),
			Timestamp:      time.Now(),
		}

		// Alert asynchronously to avoid blocking the response
		go func() {
			alertCtx, cancel := context.WithTimeout(context.Background(), g.config.AlertTimeout)
			defer cancel()
			_ = g.alerter.SendWebhook(alertCtx, alert.WebhookAlert{Body: block})
			_ = g.alerter.SendSlack(alertCtx, alert.SlackAlertFromBlock(block))
		}()
	}

	// Step 6: Stream the verdict asynchronously if enabled
	if g.config.EnableStreaming && g.streamer != nil && !req.SkipStreaming {
		event := stream.VerdictEvent{
			ID:             result.ReportID,
			Timestamp:      time.Now(),
			ServiceID:      g.config.ServiceID,
			Channel:        req.Channel,
			Safe:           report.Safe,
			Blocked:        result.Blocked,
			RiskScore:      report.RiskScore,
			Recommendation: report.Recommendation,
			CategoryCounts: categoryCounts(report),
			ContentHash:    stream.HashContent(req.Content),
			ContentLength:  len(req.Content),
			Redacted:       req.Redact,
		}

		go func() {
			_ = g.streamer.Stream(context.Background(), []stream.VerdictEvent{event})
		}()
	}

	result.Metrics.TotalDuration = time.Since(startTime)

	return result, nil
}

// Verify verifies an attestation is valid.
func (g *defaultGate) Verify(attestation *attest.Attestation) (bool, error) {
	if g.attestor == nil {
		return false, fmt.Errorf("no attestor configured")
	}
	if err := g.attestor.Verify(context.Background(), attestation); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases resources held by the gate's sub-components.
func (g *defaultGate) Close() error {
	if g.streamer != nil {
		if err := g.streamer.Close(); err != nil {
			return fmt.Errorf("streamer close: %w", err)
		}
	}
	return nil
}

// categoryCounts converts a report's detected values into per-category counts.
func categoryCounts(report pii.SafetyReport) map[string]int {
	if len(report.PIIDetected) == 0 {
		return nil
	}
	counts := make(map[string]int, len(report.PIIDetected))
	for cat, values := range report.PIIDetected {
		counts[string(cat)] = len(values)
	}
	return counts
}
