package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/stream"
)

func newTestGate(opts ...GateOption) *defaultGate {
	detector := pii.NewDetector()
	return NewGate(pii.NewValidator(detector), opts...)
}

func TestCheckSafeContent(t *testing.T) {
	gate := newTestGate()

	result, err := gate.Check(context.Background(), CheckRequest{
		Content: "Looks good, talk soon!",
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.ReportID == "" {
		t.Error("report ID is empty")
	}
	if result.Blocked {
		t.Error("clean content must not be blocked")
	}
	if !result.Report.Safe {
		t.Error("clean content must be safe")
	}
	if result.Report.Recommendation != pii.RecommendSafe {
		t.Errorf("recommendation = %q", result.Report.Recommendation)
	}
	if result.Metrics.ContentSize != len("Looks good, talk soon!") {
		t.Errorf("content size = %d", result.Metrics.ContentSize)
	}
}

func TestCheckBlocksHighRisk(t *testing.T) {
	gate := newTestGate()

	result, err := gate.Check(context.Background(), CheckRequest{
		Content: "My SSN is 219-09-9999",
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if !result.Blocked {
		t.Error("SSN content must be blocked")
	}
	if result.Report.RiskScore != 1.0 {
		t.Errorf("risk_score = %v, want 1.0", result.Report.RiskScore)
	}
	if result.Report.Recommendation != pii.RecommendBlock {
		t.Errorf("recommendation = %q", result.Report.Recommendation)
	}
	if result.Metrics.DetectionCount == 0 {
		t.Error("detection count should be non-zero")
	}
}

func TestCheckStrictMode(t *testing.T) {
	gate := newTestGate()

	result, err := gate.Check(context.Background(), CheckRequest{
		Content:    "Contact john@example.com",
		Channel:    "email",
		StrictMode: true,
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.Report.Safe {
		t.Error("strict mode must flag any detection unsafe")
	}
	if !result.Blocked {
		t.Error("strict unsafe verdict must block")
	}
	if result.Report.RiskScore != 0.3 {
		t.Errorf("risk_score = %v, want 0.3", result.Report.RiskScore)
	}
	if result.Report.Recommendation != pii.RecommendCaution {
		t.Errorf("recommendation = %q", result.Report.Recommendation)
	}
}

func TestCheckWithRedaction(t *testing.T) {
	detector := pii.NewDetector()
	gate := NewGate(
		pii.NewValidator(detector),
		WithRedactor(pii.NewRedactor(detector)),
	)

	result, err := gate.Check(context.Background(), CheckRequest{
		Content: "Reach me: john.doe@example.com",
		Channel: "email",
		Redact:  true,
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.RedactedContent != "Reach me: jXXXXXXX@example.com" {
		t.Errorf("redacted content = %q", result.RedactedContent)
	}
	if len(result.RedactionMap[pii.CategoryEmail]) != 1 {
		t.Errorf("redaction map = %v", result.RedactionMap)
	}
}

func TestCheckNoRedactionWithoutRequest(t *testing.T) {
	detector := pii.NewDetector()
	gate := NewGate(
		pii.NewValidator(detector),
		WithRedactor(pii.NewRedactor(detector)),
	)

	result, err := gate.Check(context.Background(), CheckRequest{
		Content: "Reach me: john.doe@example.com",
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.RedactedContent != "" {
		t.Errorf("redacted content should be empty when not requested, got %q", result.RedactedContent)
	}
}

func TestCheckCreatesAttestation(t *testing.T) {
	attestor := attest.NewAttestor([]byte("key"), nil)
	gate := newTestGate(WithAttestor(attestor))

	result, err := gate.Check(context.Background(), CheckRequest{
		Content: "Looks good, talk soon!",
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.Attestation == nil {
		t.Fatal("expected attestation on result")
	}
	if !result.Attestation.Safe {
		t.Error("attestation should record a safe verdict")
	}

	ok, err := gate.Verify(result.Attestation)
	if err != nil || !ok {
		t.Errorf("Verify = %v, %v", ok, err)
	}
}

func TestCheckSkipsWithValidAttestation(t *testing.T) {
	attestor := attest.NewAttestor([]byte("key"), nil)
	gate := newTestGate(WithAttestor(attestor))
	content := "Looks good, talk soon!"

	first, err := gate.Check(context.Background(), CheckRequest{Content: content, Channel: "email"})
	if err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}

	second, err := gate.Check(context.Background(), CheckRequest{
		Content:     content,
		Channel:     "email",
		Attestation: first.Attestation,
	})
	if err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}

	if !second.Skipped {
		t.Error("second check with valid attestation should skip")
	}
	if second.SkipReason == "" {
		t.Error("skip reason should be set")
	}
	if !second.Metrics.AttestationSkipped {
		t.Error("metrics should record the skip")
	}
}

func TestCheckNoSkipOnChangedContent(t *testing.T) {
	attestor := attest.NewAttestor([]byte("key"), nil)
	gate := newTestGate(WithAttestor(attestor))

	first, err := gate.Check(context.Background(), CheckRequest{
		Content: "Looks good, talk soon!",
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}

	second, err := gate.Check(context.Background(), CheckRequest{
		Content:     "My SSN is 219-09-9999",
		Channel:     "email",
		Attestation: first.Attestation,
	})
	if err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}

	if second.Skipped {
		t.Error("attestation for different content must not allow a skip")
	}
	if !second.Blocked {
		t.Error("the new content must still be blocked")
	}
}

func TestCheckStreamsVerdict(t *testing.T) {
	streamer := stream.NewLocalStreamer(nil)
	events := make(chan stream.VerdictEvent, 4)
	streamer.OnPublish(func(topic string, event stream.VerdictEvent) {
		events <- event
	})

	gate := newTestGate(WithStreamer(streamer))

	content := "My SSN is 219-09-9999"
	result, err := gate.Check(context.Background(), CheckRequest{Content: content, Channel: "sms"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	// Streaming is asynchronous; the blocked verdict publishes to two topics.
	var got stream.VerdictEvent
	select {
	case got = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no verdict event streamed")
	}

	if got.ID != result.ReportID {
		t.Errorf("event ID = %q, want report ID %q", got.ID, result.ReportID)
	}
	if !got.Blocked {
		t.Error("event should record the block")
	}
	if got.Channel != "sms" {
		t.Errorf("event channel = %q", got.Channel)
	}
	if got.ContentHash != stream.HashContent(content) {
		t.Error("event content hash does not match")
	}
	if strings.Contains(got.ContentHash, "219-09-9999") {
		t.Error("event must never carry raw PII")
	}
	if got.CategoryCounts["ssn"] != 1 {
		t.Errorf("category counts = %v", got.CategoryCounts)
	}
}

func TestCheckSkipStreaming(t *testing.T) {
	streamer := stream.NewLocalStreamer(nil)
	events := make(chan stream.VerdictEvent, 4)
	streamer.OnPublish(func(topic string, event stream.VerdictEvent) {
		events <- event
	})

	gate := newTestGate(WithStreamer(streamer))

	_, err := gate.Check(context.Background(), CheckRequest{
		Content:       "Looks good!",
		Channel:       "email",
		SkipStreaming: true,
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	select {
	case e := <-events:
		t.Errorf("unexpected event streamed: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCheckCancelledContext(t *testing.T) {
	gate := newTestGate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gate.Check(ctx, CheckRequest{Content: "hello", Channel: "email"}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestVerifyWithoutAttestor(t *testing.T) {
	gate := newTestGate()

	if _, err := gate.Verify(&attest.Attestation{}); err == nil {
		t.Error("Verify without an attestor must return an error")
	}
}

func TestGateClose(t *testing.T) {
	streamer := stream.NewLocalStreamer(nil)
	gate := newTestGate(WithStreamer(streamer))

	if err := gate.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	err := streamer.Stream(context.Background(), []stream.VerdictEvent{{ID: "x"}})
	if err != stream.ErrStreamerClosed {
		t.Errorf("streamer should be closed after gate Close, got %v", err)
	}
}
