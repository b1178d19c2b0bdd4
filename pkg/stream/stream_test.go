package stream

import (
	"context"
	"sync"
	"testing"
)

// testTopics returns a standard topic configuration for tests.
func testTopics() Topics {
	return Topics{
		Verdicts: "sendguard.verdicts",
		Blocked:  "sendguard.verdicts.blocked",
	}
}

// TestTopicRouter_AllVerdicts verifies that every event goes to the verdicts topic.
func TestTopicRouter_AllVerdicts(t *testing.T) {
	router := NewTopicRouter(testTopics())

	tests := []struct {
		name  string
		event VerdictEvent
	}{
		{
			name:  "safe verdict",
			event: VerdictEvent{ID: "v-1", Safe: true, RiskScore: 0},
		},
		{
			name:  "caution verdict",
			event: VerdictEvent{ID: "v-2", Safe: true, RiskScore: 0.3},
		},
		{
			name:  "blocked verdict",
			event: VerdictEvent{ID: "v-3", Safe: false, Blocked: true, RiskScore: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics := router.Route(tt.event)
			if len(topics) == 0 {
				t.Fatal("expected at least one topic")
			}
			if topics[0] != testTopics().Verdicts {
				t.Errorf("first topic = %q, want %q", topics[0], testTopics().Verdicts)
			}
		})
	}
}

// TestTopicRouter_Blocked verifies that blocked events also go to the blocked topic.
func TestTopicRouter_Blocked(t *testing.T) {
	router := NewTopicRouter(testTopics())

	event := VerdictEvent{
		ID:        "v-blocked",
		Safe:      false,
		Blocked:   true,
		RiskScore: 1.0,
	}

	topics := router.Route(event)
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d: %v", len(topics), topics)
	}
	assertContains(t, topics, testTopics().Verdicts)
	assertContains(t, topics, testTopics().Blocked)
}

// TestTopicRouter_SafeNoExtraTopic verifies that safe verdicts only go to the
// verdicts topic.
func TestTopicRouter_SafeNoExtraTopic(t *testing.T) {
	router := NewTopicRouter(testTopics())

	event := VerdictEvent{ID: "v-safe", Safe: true}

	topics := router.Route(event)
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d: %v", len(topics), topics)
	}
	if topics[0] != testTopics().Verdicts {
		t.Errorf("topic = %q, want %q", topics[0], testTopics().Verdicts)
	}
}

// TestLocalStreamer_Stream verifies that events are published to the correct
// topics via callbacks.
func TestLocalStreamer_Stream(t *testing.T) {
	streamer := NewLocalStreamer(DefaultStreamerConfig())

	var mu sync.Mutex
	var results []published

	streamer.OnPublish(func(topic string, event VerdictEvent) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, published{topic: topic, event: event})
	})

	events := []VerdictEvent{
		{ID: "test-1", Safe: true, RiskScore: 0.3},
		{ID: "test-2", Safe: false, Blocked: true, RiskScore: 1.0},
	}

	if err := streamer.Stream(context.Background(), events); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	// test-1 (safe) -> 1 topic; test-2 (blocked) -> 2 topics; total 3
	if len(results) != 3 {
		t.Fatalf("expected 3 publications, got %d", len(results))
	}

	if got := filterByID(results, "test-1"); len(got) != 1 {
		t.Errorf("test-1: expected 1 publication, got %d", len(got))
	}
	if got := filterByID(results, "test-2"); len(got) != 2 {
		t.Errorf("test-2: expected 2 publications, got %d", len(got))
	}
}

// TestLocalStreamer_Closed verifies that Stream returns ErrStreamerClosed
// after Close is called.
func TestLocalStreamer_Closed(t *testing.T) {
	streamer := NewLocalStreamer(nil)

	if err := streamer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	err := streamer.Stream(context.Background(), []VerdictEvent{{ID: "test-closed"}})
	if err != ErrStreamerClosed {
		t.Errorf("Stream after close: got %v, want %v", err, ErrStreamerClosed)
	}
}

// TestLocalStreamer_MultipleCallbacks verifies that all registered callbacks
// are invoked for each published event.
func TestLocalStreamer_MultipleCallbacks(t *testing.T) {
	streamer := NewLocalStreamer(nil)

	var mu sync.Mutex
	counts := make([]int, 3)

	for i := 0; i < 3; i++ {
		idx := i
		streamer.OnPublish(func(topic string, event VerdictEvent) {
			mu.Lock()
			defer mu.Unlock()
			counts[idx]++
		})
	}

	events := []VerdictEvent{
		{ID: "multi-cb-1", Safe: true},
		{ID: "multi-cb-2", Safe: true},
	}

	if err := streamer.Stream(context.Background(), events); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	// 2 safe events, each going to 1 topic = 2 invocations per callback
	for i, count := range counts {
		if count != 2 {
			t.Errorf("callback %d: invoked %d times, want 2", i, count)
		}
	}
}

// TestLocalStreamer_ContextCancellation verifies that Stream respects context cancellation.
func TestLocalStreamer_ContextCancellation(t *testing.T) {
	streamer := NewLocalStreamer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := streamer.Stream(ctx, []VerdictEvent{{ID: "ctx-1"}})
	if err == nil {
		t.Error("expected error from cancelled context, got nil")
	}
}

// TestLocalStreamer_EmptyEvents verifies that streaming no events works without error.
func TestLocalStreamer_EmptyEvents(t *testing.T) {
	streamer := NewLocalStreamer(nil)

	callCount := 0
	streamer.OnPublish(func(topic string, event VerdictEvent) {
		callCount++
	})

	if err := streamer.Stream(context.Background(), []VerdictEvent{}); err != nil {
		t.Fatalf("Stream with no events returned error: %v", err)
	}

	if callCount != 0 {
		t.Errorf("callback invoked %d times for no events, want 0", callCount)
	}
}

// TestLocalStreamer_CloseIdempotent verifies that Close can be called multiple times.
func TestLocalStreamer_CloseIdempotent(t *testing.T) {
	streamer := NewLocalStreamer(nil)

	if err := streamer.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := streamer.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestHashContent(t *testing.T) {
	h1 := HashContent("hello")
	h2 := HashContent("hello")
	h3 := HashContent("world")

	if h1 != h2 {
		t.Error("hashing the same content must be deterministic")
	}
	if h1 == h3 {
		t.Error("different content must hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

// --- helpers ---

func assertContains(t *testing.T, slice []string, expected string) {
	t.Helper()
	for _, s := range slice {
		if s == expected {
			return
		}
	}
	t.Errorf("expected %v to contain %q", slice, expected)
}

type published struct {
	topic string
	event VerdictEvent
}

func filterByID(results []published, id string) []published {
	var filtered []published
	for _, r := range results {
		if r.event.ID == id {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
