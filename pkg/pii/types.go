// Package pii implements the send-safety engine: regex-based PII detection
// with per-category confidence scoring, partial redaction, and a safety
// verdict for outbound CRM content.
package pii

// Category identifies a class of personally identifiable information.
type Category string

const (
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategorySSN        Category = "ssn"
	CategoryCreditCard Category = "credit_card"
	CategoryAPIKey     Category = "api_key"
	CategoryIPAddress  Category = "ip_address"

	// Declared for callers that enumerate the full category set.
	// No detection pattern is registered for these yet, so they never
	// appear in detection output.
	CategoryAddress     Category = "address"
	CategoryDateOfBirth Category = "date_of_birth"
)

// Categories returns every declared category, including those without a
// registered detection pattern.
func Categories() []Category {
	return []Category{
		CategoryEmail,
		CategoryPhone,
		CategorySSN,
		CategoryCreditCard,
		CategoryAPIKey,
		CategoryIPAddress,
		CategoryAddress,
		CategoryDateOfBirth,
	}
}

// Match is a single detected value. Start and End are byte offsets into the
// original scanned text, with End exclusive. Matches are produced fresh per
// Detect call and never persisted.
type Match struct {
	Category   Category `json:"category"`
	Value      string   `json:"value"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence float64  `json:"confidence"`
}

// DetectionResult maps each category to its matches, ordered by position.
// Categories with no matches are absent from the map: a missing key means
// "nothing of that category was found", not "detector disabled".
type DetectionResult map[Category][]Match

// RedactionRecord logs one substitution performed by the Redactor. Position
// is the start offset of the original value in the input text.
type RedactionRecord struct {
	Original string `json:"original"`
	Redacted string `json:"redacted"`
	Position int    `json:"position"`
}

// RedactionMap groups redaction records by category.
type RedactionMap map[Category][]RedactionRecord

// SafetyReport is the verdict for a piece of outbound content. It is derived
// per call and not persisted.
type SafetyReport struct {
	Safe           bool                  `json:"safe"`
	Warnings       []string              `json:"warnings"`
	PIIDetected    map[Category][]string `json:"pii_detected"`
	RiskScore      float64               `json:"risk_score"`
	Recommendation string                `json:"recommendation"`
}
