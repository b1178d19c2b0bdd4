package pii

// DefaultConfidenceThreshold is applied by Detect when no threshold option
// is given.
const DefaultConfidenceThreshold = 0.7

// Detector scans text against the fixed category patterns. It holds no
// mutable state after construction and is safe for concurrent use.
type Detector struct {
	threshold float64
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithConfidenceThreshold sets the minimum confidence for a match to be
// included in Detect output.
func WithConfidenceThreshold(threshold float64) DetectorOption {
	return func(d *Detector) {
		d.threshold = threshold
	}
}

// NewDetector creates a detector with the default confidence threshold.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{threshold: DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured confidence threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect scans text and returns every match at or above the confidence
// threshold, keyed by category and ordered by position. Matches within one
// category are non-overlapping. Categories with nothing kept are absent
// from the result.
func (d *Detector) Detect(text string) DetectionResult {
	result := make(DetectionResult)
	for _, cat := range detectableCategories {
		var kept []Match
		for _, m := range findMatches(cat, text) {
			if m.Confidence >= d.threshold {
				kept = append(kept, m)
			}
		}
		if len(kept) > 0 {
			result[cat] = kept
		}
	}
	return result
}

// DetectValues scans text and returns the unique matched values per
// category, without positions and without threshold filtering. Values keep
// first-seen order; duplicates are dropped.
func (d *Detector) DetectValues(text string) map[Category][]string {
	values := make(map[Category][]string)
	for _, cat := range detectableCategories {
		matches := findMatches(cat, text)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(matches))
		unique := make([]string, 0, len(matches))
		for _, m := range matches {
			if _, ok := seen[m.Value]; ok {
				continue
			}
			seen[m.Value] = struct{}{}
			unique = append(unique, m.Value)
		}
		values[cat] = unique
	}
	return values
}

// findMatches runs one category's pattern over text and scores each match.
func findMatches(cat Category, text string) []Match {
	spec := categoryTable[cat]
	indices := spec.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(indices) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(indices))
	for _, idx := range indices {
		start, end := idx[0], idx[1]
		if spec.group > 0 {
			gs, ge := idx[2*spec.group], idx[2*spec.group+1]
			if gs < 0 {
				continue
			}
			start, end = gs, ge
		}

		value := text[start:end]
		confidence := defaultConfidence
		if spec.confidence != nil {
			confidence = spec.confidence(value)
		}

		matches = append(matches, Match{
			Category:   cat,
			Value:      value,
			Start:      start,
			End:        end,
			Confidence: confidence,
		})
	}
	return matches
}
