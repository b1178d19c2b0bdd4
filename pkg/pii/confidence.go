package pii

import (
	"strconv"
	"strings"
)

// defaultConfidence applies to categories without a dedicated scorer.
const defaultConfidence = 0.8

// commonTLDs raise email confidence; anything else is more likely a false
// positive (internal hostnames, code snippets).
var commonTLDs = []string{".com", ".org", ".net", ".edu", ".gov"}

func emailConfidence(value string) float64 {
	lower := strings.ToLower(value)
	for _, tld := range commonTLDs {
		if strings.HasSuffix(lower, tld) {
			return 0.95
		}
	}
	return 0.75
}

// phoneConfidence scores high only for a 10-digit number whose area code is
// in the assignable range [200, 999].
func phoneConfidence(value string) float64 {
	digits := digitsOf(value)
	if len(digits) == 10 {
		area, _ := strconv.Atoi(digits[:3])
		if area >= 200 && area <= 999 {
			return 0.9
		}
	}
	return 0.7
}

// ssnConfidence down-weights area prefixes 000, 666, and 900-999, which are
// never assigned and usually indicate a phone or account number that matched
// the SSN shape.
func ssnConfidence(value string) float64 {
	digits := digitsOf(value)
	if len(digits) != 9 {
		return 0.5
	}
	area, _ := strconv.Atoi(digits[:3])
	if area == 0 || area == 666 || area >= 900 {
		return 0.3
	}
	return 0.95
}

func creditCardConfidence(value string) float64 {
	if luhnValid(digitsOf(value)) {
		return 0.95
	}
	return 0.5
}

// apiKeyConfidence scores the captured token: real secrets are long.
func apiKeyConfidence(value string) float64 {
	if len(value) >= 32 {
		return 0.9
	}
	return 0.7
}

// digitsOf strips everything but ASCII digits.
func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
