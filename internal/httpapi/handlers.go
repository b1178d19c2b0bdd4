package httpapi

import (
	"net/http"
	"time"

	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/pipeline"
)

type detectRequest struct {
	Content string `json:"content"`

	// IncludePositions switches the detection payload from unique values to
	// full matches with offsets and confidence scores.
	IncludePositions bool `json:"include_positions,omitempty"`

	// Redact additionally returns a redacted copy of the content.
	Redact bool `json:"redact,omitempty"`
}

type detectResponse struct {
	PIIDetected     any               `json:"pii_detected"`
	HasPII          bool              `json:"has_pii"`
	RedactedContent *string           `json:"redacted_content"`
	RedactionMap    *pii.RedactionMap `json:"redaction_map"`
}

func (s *Server) handleDetectPII(w http.ResponseWriter, r *http.Request) {
	const route = "detect_pii"

	var req detectRequest
	if !s.readBody(w, r, &req, route) {
		return
	}
	if !s.checkContentSize(w, req.Content, route) {
		return
	}

	start := time.Now()

	var detected any
	hasPII := false
	if req.IncludePositions {
		result := s.detector.Detect(req.Content)
		hasPII = len(result) > 0
		detected = result
		s.countDetections(detectionCountsFromMatches(result))
	} else {
		values := s.detector.DetectValues(req.Content)
		hasPII = len(values) > 0
		detected = values
		s.countDetections(detectionCountsFromValues(values))
	}

	resp := detectResponse{
		PIIDetected: detected,
		HasPII:      hasPII,
	}

	if req.Redact && s.redactor != nil {
		redacted, redactionMap := s.redactor.Redact(req.Content)
		resp.RedactedContent = &redacted
		resp.RedactionMap = &redactionMap
		if s.metrics != nil {
			s.metrics.Redactions.Inc()
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveCheckDuration(time.Since(start))
	}
	s.countRequest(route, http.StatusOK)

	s.logger.Debug("pii detection completed",
		"content_length", len(req.Content),
		"has_pii", hasPII,
		"include_positions", req.IncludePositions)

	respondJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Content string `json:"content"`

	// Context names the send channel the message is bound for, e.g. "email".
	Context string `json:"context"`

	// StrictMode marks the verdict unsafe on any detection for this request.
	StrictMode bool `json:"strict_mode,omitempty"`

	// Redact additionally returns a redacted copy of the content.
	Redact bool `json:"redact,omitempty"`
}

type validateResponse struct {
	ReportID string `json:"report_id"`
	pii.SafetyReport
	RedactedContent string           `json:"redacted_content,omitempty"`
	RedactionMap    pii.RedactionMap `json:"redaction_map,omitempty"`
}

func (s *Server) handleValidateSafety(w http.ResponseWriter, r *http.Request) {
	const route = "validate_safety"

	var req validateRequest
	if !s.readBody(w, r, &req, route) {
		return
	}
	if !s.checkContentSize(w, req.Content, route) {
		return
	}

	result, err := s.gate.Check(r.Context(), pipeline.CheckRequest{
		Content:    req.Content,
		Channel:    req.Context,
		StrictMode: req.StrictMode,
		Redact:     req.Redact,
	})
	if err != nil {
		s.countRequest(route, http.StatusInternalServerError)
		s.logger.Error("safety check failed", "error", err)
		respondError(w, http.StatusInternalServerError, "check_failed", "safety check failed")
		return
	}

	if s.metrics != nil {
		s.metrics.ChecksTotal.WithLabelValues(recommendationTier(result.Report.Recommendation)).Inc()
		if result.Blocked {
			s.metrics.BlockedSends.Inc()
		}
		s.countDetections(detectionCountsFromValues(result.Report.PIIDetected))
		s.metrics.ObserveCheckDuration(result.Metrics.TotalDuration)
	}
	s.countRequest(route, http.StatusOK)

	s.logger.Info("safety check completed",
		"report_id", result.ReportID,
		"context", req.Context,
		"safe", result.Report.Safe,
		"risk_score", result.Report.RiskScore,
		"skipped", result.Skipped)

	setAttestationHeaders(w, result)
	respondJSON(w, http.StatusOK, validateResponse{
		ReportID:        result.ReportID,
		SafetyReport:    result.Report,
		RedactedContent: result.RedactedContent,
		RedactionMap:    result.RedactionMap,
	})
}

type redactRequest struct {
	Content string `json:"content"`
}

type redactResponse struct {
	RedactedContent string           `json:"redacted_content"`
	RedactionMap    pii.RedactionMap `json:"redaction_map"`
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	const route = "redact"

	var req redactRequest
	if !s.readBody(w, r, &req, route) {
		return
	}
	if !s.checkContentSize(w, req.Content, route) {
		return
	}

	redacted, redactionMap := s.redactor.Redact(req.Content)
	if s.metrics != nil {
		s.metrics.Redactions.Inc()
	}
	s.countRequest(route, http.StatusOK)

	respondJSON(w, http.StatusOK, redactResponse{
		RedactedContent: redacted,
		RedactionMap:    redactionMap,
	})
}

func (s *Server) countDetections(counts map[string]int) {
	if s.metrics == nil {
		return
	}
	for cat, n := range counts {
		s.metrics.DetectionsT.WithLabelValues(cat).Add(float64(n))
	}
}

func detectionCountsFromMatches(result pii.DetectionResult) map[string]int {
	counts := make(map[string]int, len(result))
	for cat, matches := range result {
		counts[string(cat)] = len(matches)
	}
	return counts
}

func detectionCountsFromValues(values map[pii.Category][]string) map[string]int {
	counts := make(map[string]int, len(values))
	for cat, vs := range values {
		counts[string(cat)] = len(vs)
	}
	return counts
}

// recommendationTier maps a recommendation string to its metric label.
func recommendationTier(recommendation string) string {
	switch {
	case recommendation == pii.RecommendSafe:
		return "safe"
	case recommendation == pii.RecommendCaution:
		return "caution"
	case recommendation == pii.RecommendReview:
		return "review"
	case recommendation == pii.RecommendBlock:
		return "block"
	default:
		return "unknown"
	}
}
