// Package config loads and validates sendguard configuration from YAML
// files with environment variable substitution.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Streaming StreamingConfig `yaml:"streaming"`
	Alerting  AlertingConfig  `yaml:"alerting"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig identifies this sendguard instance.
type ServiceConfig struct {
	ID          string `yaml:"id"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	HTTP    ListenerConfig `yaml:"http"`
	Metrics ListenerConfig `yaml:"metrics"`

	// MaxContentBytes caps request content size before it reaches the
	// engine, which itself imposes no input limit.
	MaxContentBytes int `yaml:"max_content_bytes"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ListenerConfig is a host/port pair.
type ListenerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EngineConfig tunes the detection engine.
type EngineConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	RedactionChar       string  `yaml:"redaction_char"`
	PartialRedaction    *bool   `yaml:"partial_redaction"`
	StrictMode          bool    `yaml:"strict_mode"`

	// AttestationKey signs safety verdicts; set it via the environment in
	// production. Empty disables attestation.
	AttestationKey string        `yaml:"attestation_key"`
	AttestationTTL time.Duration `yaml:"attestation_ttl"`
}

// StreamingConfig configures Kafka audit streaming.
type StreamingConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topics  Topics   `yaml:"topics"`

	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Compression   string        `yaml:"compression"`
	RequiredAcks  string        `yaml:"required_acks"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// Topics names the Kafka topics for verdict audit events.
type Topics struct {
	Verdicts string `yaml:"verdicts"`
	Blocked  string `yaml:"blocked"`
}

// AlertingConfig configures block alerting.
type AlertingConfig struct {
	WebhookURL      string        `yaml:"webhook_url"`
	SlackWebhookURL string        `yaml:"slack_webhook_url"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with development defaults.
func DefaultConfig() *Config {
	partial := true
	return &Config{
		Service: ServiceConfig{
			ID:          "sendguard",
			Environment: "development",
		},
		Server: ServerConfig{
			HTTP:            ListenerConfig{Host: "0.0.0.0", Port: 8080},
			Metrics:         ListenerConfig{Host: "0.0.0.0", Port: 9090},
			MaxContentBytes: 1 << 20, // 1MB
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			ConfidenceThreshold: 0.7,
			RedactionChar:       "X",
			PartialRedaction:    &partial,
			StrictMode:          false,
			AttestationTTL:      5 * time.Minute,
		},
		Streaming: StreamingConfig{
			Enabled: false,
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
		},
		Alerting: AlertingConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Partial reports whether partial redaction is enabled, defaulting to true
// when the field is omitted from the file.
func (e EngineConfig) Partial() bool {
	if e.PartialRedaction == nil {
		return true
	}
	return *e.PartialRedaction
}
