package pii

import (
	"math"
)

// Warning and recommendation strings are part of the wire contract; callers
// key off their prefixes.
const (
	WarnFinancial  = "HIGH RISK: Financial/identity information detected."
	WarnAPIKey     = "CRITICAL: API keys or tokens detected."
	WarnManyEmails = "Multiple email addresses detected."

	RecommendBlock   = "BLOCK: Do not send. Remove sensitive information."
	RecommendReview  = "REVIEW: Manual review required before sending."
	RecommendCaution = "CAUTION: PII detected. Verify necessity."
	RecommendSafe    = "SAFE: No PII detected."
)

// Validator renders a pass/fail safety verdict for outbound content. It is
// a stateless single-pass scorer over detector output.
type Validator struct {
	detector *Detector
	strict   bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithStrictMode marks content unsafe whenever any category is detected,
// regardless of risk score.
func WithStrictMode() ValidatorOption {
	return func(v *Validator) {
		v.strict = true
	}
}

// NewValidator creates a validator over the given detector.
func NewValidator(detector *Detector, opts ...ValidatorOption) *Validator {
	v := &Validator{detector: detector}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate scores content for send safety. channel names the outbound
// surface ("email", "note", "webhook"); it is carried through to audit
// events and does not affect scoring. Validate never fails for string
// input: the worst outcome is an unsafe report with a block recommendation.
func (v *Validator) Validate(content, channel string) SafetyReport {
	_ = channel

	detections := v.detector.Detect(content)

	report := SafetyReport{
		Safe:        true,
		Warnings:    []string{},
		PIIDetected: make(map[Category][]string, len(detections)),
	}
	for cat, matches := range detections {
		report.PIIDetected[cat] = uniqueValues(matches)
	}

	risk := 0.0

	_, hasSSN := detections[CategorySSN]
	_, hasCard := detections[CategoryCreditCard]
	if hasSSN || hasCard {
		risk = math.Max(risk, 1.0)
		report.Warnings = append(report.Warnings, WarnFinancial)
	}

	if _, ok := detections[CategoryAPIKey]; ok {
		risk = math.Max(risk, 0.9)
		report.Warnings = append(report.Warnings, WarnAPIKey)
	}

	if emails, ok := report.PIIDetected[CategoryEmail]; ok {
		risk = math.Max(risk, 0.3)
		if len(emails) > 3 {
			report.Warnings = append(report.Warnings, WarnManyEmails)
		}
	}

	if _, ok := detections[CategoryPhone]; ok {
		risk = math.Max(risk, 0.2)
	}

	report.RiskScore = risk

	if v.strict && len(detections) > 0 {
		report.Safe = false
	}
	if risk >= 0.8 {
		report.Safe = false
	}

	switch {
	case risk >= 0.8:
		report.Recommendation = RecommendBlock
	case risk >= 0.5:
		report.Recommendation = RecommendReview
	case len(detections) > 0:
		report.Recommendation = RecommendCaution
	default:
		report.Recommendation = RecommendSafe
	}

	return report
}

// uniqueValues collapses matches to their distinct values in first-seen order.
func uniqueValues(matches []Match) []string {
	seen := make(map[string]struct{}, len(matches))
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Value]; ok {
			continue
		}
		seen[m.Value] = struct{}{}
		values = append(values, m.Value)
	}
	return values
}
