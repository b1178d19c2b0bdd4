// Package alert notifies external channels when a send is blocked.
package alert

import (
	"context"
	"time"
)

// Alerter sends block notifications to external channels.
type Alerter interface {
	// SendSlack sends a block alert to Slack via an incoming webhook.
	SendSlack(ctx context.Context, alert SlackAlert) error

	// SendWebhook posts a block alert to a generic webhook endpoint.
	SendWebhook(ctx context.Context, alert WebhookAlert) error
}

// BlockAlert summarizes a blocked send. It carries category names and
// aggregate data only, never raw PII values.
type BlockAlert struct {
	ReportID       string         `json:"report_id"`
	Channel        string         `json:"channel"`
	RiskScore      float64        `json:"risk_score"`
	Recommendation string         `json:"recommendation"`
	Warnings       []string       `json:"warnings"`
	CategoryCounts map[string]int `json:"category_counts"`
	Timestamp      time.Time      `json:"timestamp"`
}

// SlackAlert is a Slack-formatted block notification.
type SlackAlert struct {
	Channel string            `json:"channel,omitempty"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Risk    float64           `json:"risk"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WebhookAlert is a generic webhook notification.
type WebhookAlert struct {
	URL     string            `json:"url,omitempty"` // overrides configured URL when set
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    interface{}       `json:"body"`
}

// Config configures the HTTP alerter.
type Config struct {
	WebhookURL      string
	SlackWebhookURL string
	Timeout         time.Duration
}
