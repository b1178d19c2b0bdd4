package pii

import (
	"strings"
	"testing"
)

func TestRedactPartialMasks(t *testing.T) {
	redactor := NewRedactor(NewDetector())

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "Email keeps first char and domain",
			content:  "Reach me: john.doe@example.com",
			expected: "Reach me: jXXXXXXX@example.com",
		},
		{
			name:     "Phone keeps area code and last four",
			content:  "Call 555-123-4567",
			expected: "Call (555) XXX-4567",
		},
		{
			name:     "SSN keeps last four",
			content:  "SSN 219-09-1234",
			expected: "SSN XXX-XX-1234",
		},
		{
			name:     "Card keeps last four",
			content:  "Card: 4532015112830366",
			expected: "Card: XXXX XXXX XXXX 0366",
		},
		{
			name:     "IP falls back to generic mask",
			content:  "host 203.0.113.7",
			expected: "host XXXXXXX13.7",
		},
		{
			name:     "No PII leaves text unchanged",
			content:  "Looks good, talk soon!",
			expected: "Looks good, talk soon!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redacted, _ := redactor.Redact(tt.content)
			if redacted != tt.expected {
				t.Errorf("Redact(%q) = %q, want %q", tt.content, redacted, tt.expected)
			}
		})
	}
}

func TestRedactCardWithStarMask(t *testing.T) {
	redactor := NewRedactor(NewDetector(), WithMaskChar('*'))

	redacted, redactionMap := redactor.Redact("Card: 4532015112830366")
	if !strings.Contains(redacted, "**** **** **** 0366") {
		t.Errorf("redacted text %q missing masked card", redacted)
	}

	records := redactionMap[CategoryCreditCard]
	if len(records) != 1 {
		t.Fatalf("expected 1 credit_card record, got %d", len(records))
	}
	if records[0].Original != "4532015112830366" {
		t.Errorf("record original = %q, want the full card number", records[0].Original)
	}
	if records[0].Position != strings.Index("Card: 4532015112830366", "4532") {
		t.Errorf("record position = %d, want offset of the card number", records[0].Position)
	}
}

func TestRedactAPIKeyGenericFallthrough(t *testing.T) {
	// api_key has no dedicated partial formatter: it falls through to the
	// generic rule and keeps the last 4 characters of the captured token
	// visible. Callers depend on this output shape.
	redactor := NewRedactor(NewDetector())

	redacted, redactionMap := redactor.Redact("token: abcd1234efgh5678ijkl")
	if !strings.HasSuffix(redacted, strings.Repeat("X", 16)+"ijkl") {
		t.Errorf("redacted text %q does not end with generic-masked token", redacted)
	}

	records := redactionMap[CategoryAPIKey]
	if len(records) != 1 {
		t.Fatalf("expected 1 api_key record, got %d", len(records))
	}
	if records[0].Redacted != strings.Repeat("X", 16)+"ijkl" {
		t.Errorf("record redacted = %q", records[0].Redacted)
	}
}

func TestRedactMultipleMatchesBackToFront(t *testing.T) {
	redactor := NewRedactor(NewDetector())
	content := "Contact John at john.doe@example.com or 555-123-4567"

	redacted, redactionMap := redactor.Redact(content)
	want := "Contact John at jXXXXXXX@example.com or (555) XXX-4567"
	if redacted != want {
		t.Errorf("Redact = %q, want %q", redacted, want)
	}

	// Positions in the map are offsets into the original text, unaffected
	// by earlier replacements.
	if got := redactionMap[CategoryEmail][0].Position; got != strings.Index(content, "john.doe") {
		t.Errorf("email position = %d", got)
	}
	if got := redactionMap[CategoryPhone][0].Position; got != strings.Index(content, "555") {
		t.Errorf("phone position = %d", got)
	}
}

func TestRedactFullMaskDestroysPatterns(t *testing.T) {
	detector := NewDetector()
	redactor := NewRedactor(detector, WithFullMask())
	content := "sara@acme.com, 555-123-4567, ssn 219-09-1234, card 4532015112830366"

	redacted, redactionMap := redactor.Redact(content)
	if len(redactionMap) != 4 {
		t.Fatalf("expected 4 redacted categories, got %v", redactionMap)
	}

	// Full masking replaces each value with a same-length run of the mask
	// character, so re-scanning must find none of the original categories.
	rescan := detector.Detect(redacted)
	for cat := range redactionMap {
		if _, ok := rescan[cat]; ok {
			t.Errorf("category %s still detected after full redaction: %q", cat, redacted)
		}
	}
}

func TestRedactPartialEmailStillMatchesByDesign(t *testing.T) {
	// The partial email mask preserves the domain, so the masked value still
	// matches the email pattern. Expected behavior, not a regression.
	detector := NewDetector()
	redactor := NewRedactor(detector)

	redacted, _ := redactor.Redact("write to john.doe@example.com")
	if _, ok := detector.Detect(redacted)[CategoryEmail]; !ok {
		t.Errorf("partially masked email %q no longer matches; partial masks keep the domain", redacted)
	}
}

func TestRedactFullMaskLength(t *testing.T) {
	redactor := NewRedactor(NewDetector(), WithFullMask())

	content := "Card: 4532015112830366"
	redacted, _ := redactor.Redact(content)
	want := "Card: " + strings.Repeat("X", 16)
	if redacted != want {
		t.Errorf("Redact = %q, want %q", redacted, want)
	}
}
