package pii

import (
	"sort"
	"strings"
)

// DefaultMaskChar is the replacement character used when none is configured.
const DefaultMaskChar = 'X'

// Redactor produces a sanitized copy of text by replacing detected values
// with full or partial masks. Like the Detector it is immutable after
// construction.
type Redactor struct {
	detector *Detector
	maskChar rune
	partial  bool
}

// RedactorOption configures a Redactor.
type RedactorOption func(*Redactor)

// WithMaskChar sets the replacement character.
func WithMaskChar(c rune) RedactorOption {
	return func(r *Redactor) {
		r.maskChar = c
	}
}

// WithFullMask disables partial masking: every detected value is replaced by
// a run of the mask character matching its length.
func WithFullMask() RedactorOption {
	return func(r *Redactor) {
		r.partial = false
	}
}

// NewRedactor creates a partial-masking redactor over the given detector.
func NewRedactor(detector *Detector, opts ...RedactorOption) *Redactor {
	r := &Redactor{
		detector: detector,
		maskChar: DefaultMaskChar,
		partial:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact returns a copy of text with every above-threshold detection
// replaced, plus a per-category log of the substitutions. Matches are
// spliced back to front: replacing a lower-offset match first would shift
// the offsets of every match after it.
func (r *Redactor) Redact(text string) (string, RedactionMap) {
	detections := r.detector.Detect(text)

	var all []Match
	for _, matches := range detections {
		all = append(all, matches...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Start > all[j].Start
	})

	redacted := text
	redactionMap := make(RedactionMap)
	for _, m := range all {
		replacement := r.replacementFor(m)
		redacted = redacted[:m.Start] + replacement + redacted[m.End:]
		redactionMap[m.Category] = append(redactionMap[m.Category], RedactionRecord{
			Original: m.Value,
			Redacted: replacement,
			Position: m.Start,
		})
	}

	return redacted, redactionMap
}

func (r *Redactor) replacementFor(m Match) string {
	if !r.partial {
		return strings.Repeat(string(r.maskChar), len(m.Value))
	}
	if spec, ok := categoryTable[m.Category]; ok && spec.partialMask != nil {
		return spec.partialMask(m.Value, r.maskChar)
	}
	return maskGeneric(m.Value, r.maskChar)
}
