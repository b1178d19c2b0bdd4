// Package stream publishes safety verdict audit events to Kafka.
package stream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Streamer publishes verdict events for auditing.
type Streamer interface {
	// Stream publishes verdict events.
	Stream(ctx context.Context, events []VerdictEvent) error

	// Close flushes pending messages and closes the connection.
	Close() error
}

// VerdictEvent is the audit record emitted for each safety check. It carries
// aggregate detection data and a content hash, never raw PII values.
type VerdictEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	ServiceID string `json:"service_id"`
	Channel   string `json:"channel"`

	Safe           bool    `json:"safe"`
	Blocked        bool    `json:"blocked"`
	RiskScore      float64 `json:"risk_score"`
	Recommendation string  `json:"recommendation"`

	// CategoryCounts maps detected category names to occurrence counts.
	CategoryCounts map[string]int `json:"category_counts,omitempty"`

	ContentHash   string `json:"content_hash"`
	ContentLength int    `json:"content_length"`
	Redacted      bool   `json:"redacted"`
}

// HashContent returns the hex-encoded SHA-256 hash of content for use in
// verdict events.
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// StreamerConfig configures the streamer.
type StreamerConfig struct {
	Brokers []string `json:"brokers"`
	Topics  Topics   `json:"topics"`

	BatchSize     int           `json:"batch_size"`
	FlushInterval time.Duration `json:"flush_interval"`
	Compression   string        `json:"compression"`   // "none", "gzip", "snappy", "lz4"
	RequiredAcks  string        `json:"required_acks"` // "none", "leader", "all"

	MaxRetries   int           `json:"max_retries"`
	RetryBackoff time.Duration `json:"retry_backoff"`
}

// Topics defines the Kafka topics verdict events are routed to.
type Topics struct {
	Verdicts string `json:"verdicts"` // all verdicts
	Blocked  string `json:"blocked"`  // blocked verdicts only
}

// DefaultStreamerConfig returns default streamer configuration.
func DefaultStreamerConfig() *StreamerConfig {
	return &StreamerConfig{
		Brokers: []string{"localhost:9092"},
		Topics: Topics{
			Verdicts: "sendguard.verdicts",
			Blocked:  "sendguard.verdicts.blocked",
		},
		BatchSize:     100,
		FlushInterval: time.Second,
		Compression:   "snappy",
		RequiredAcks:  "all",
		MaxRetries:    3,
		RetryBackoff:  100 * time.Millisecond,
	}
}
