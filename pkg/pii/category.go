package pii

import (
	"regexp"
)

// categorySpec bundles everything the engine knows about one detectable
// category: how to find it, how to score a match, and how to partially mask
// it. Adding a category is a row in categoryTable, not new branching in the
// detector, redactor, or validator.
type categorySpec struct {
	pattern *regexp.Regexp

	// group is the capture group holding the sensitive value; 0 means the
	// whole match. Used for labeled patterns like api_key where the keyword
	// prefix is not itself sensitive.
	group int

	// confidence scores a matched value in [0,1]. Nil means the default
	// confidence applies.
	confidence func(value string) float64

	// partialMask formats the partial replacement for a value. Nil falls
	// through to the generic mask-all-but-last-4 rule; api_key relies on
	// that fallthrough deliberately, even though a short captured token
	// keeps its last 4 characters visible.
	partialMask func(value string, mask rune) string
}

// detectableCategories fixes the scan order so detection output is
// deterministic across calls.
var detectableCategories = []Category{
	CategoryEmail,
	CategoryPhone,
	CategorySSN,
	CategoryCreditCard,
	CategoryAPIKey,
	CategoryIPAddress,
}

var categoryTable = map[Category]categorySpec{
	CategoryEmail: {
		pattern:     regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		confidence:  emailConfidence,
		partialMask: maskEmail,
	},
	CategoryPhone: {
		pattern:     regexp.MustCompile(`\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		confidence:  phoneConfidence,
		partialMask: maskPhone,
	},
	CategorySSN: {
		pattern:     regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`),
		confidence:  ssnConfidence,
		partialMask: maskSSN,
	},
	CategoryCreditCard: {
		pattern:     regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		confidence:  creditCardConfidence,
		partialMask: maskCreditCard,
	},
	CategoryAPIKey: {
		pattern:    regexp.MustCompile(`(?i)(?:api[_-]?key|token|secret|password|pwd)\s*[=:]\s*([A-Za-z0-9_\-]{20,})`),
		group:      1,
		confidence: apiKeyConfidence,
	},
	CategoryIPAddress: {
		pattern: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
	},
}
