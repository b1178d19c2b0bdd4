package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpAlerter implements the Alerter interface using HTTP calls to external services.
type httpAlerter struct {
	client *http.Client
	config Config
}

// NewHTTPAlerter creates a new HTTP-based alerter with the given configuration.
func NewHTTPAlerter(config Config) Alerter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &httpAlerter{
		client: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}
}

// SendSlack sends an alert to Slack via the configured incoming webhook URL.
func (a *httpAlerter) SendSlack(ctx context.Context, alert SlackAlert) error {
	webhookURL := a.config.SlackWebhookURL
	if webhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	fields := make([]map[string]interface{}, 0, len(alert.Fields))
	for k, v := range alert.Fields {
		fields = append(fields, map[string]interface{}{
			"title": k,
			"value": v,
			"short": true,
		})
	}

	payload := map[string]interface{}{
		"channel": alert.Channel,
		"attachments": []map[string]interface{}{
			{
				"color":  slackColorForRisk(alert.Risk),
				"title":  alert.Title,
				"text":   alert.Message,
				"fields": fields,
				"ts":     time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack alert: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

// SendWebhook sends an alert to a configured webhook URL.
func (a *httpAlerter) SendWebhook(ctx context.Context, alert WebhookAlert) error {
	url := alert.URL
	if url == "" {
		url = a.config.WebhookURL
	}
	if url == "" {
		return fmt.Errorf("webhook URL is not configured")
	}

	method := alert.Method
	if method == "" {
		method = http.MethodPost
	}

	body, err := json.Marshal(alert.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	for k, v := range alert.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// SlackAlertFromBlock builds a Slack alert from a block summary.
func SlackAlertFromBlock(b BlockAlert) SlackAlert {
	fields := map[string]string{
		"Report ID": b.ReportID,
		"Channel":   b.Channel,
		"Risk":      fmt.Sprintf("%.2f", b.RiskScore),
	}
	for cat, n := range b.CategoryCounts {
		fields[cat] = fmt.Sprintf("%d", n)
	}

	return SlackAlert{
		Title:   "Outbound message blocked",
		Message: b.Recommendation,
		Risk:    b.RiskScore,
		Fields:  fields,
	}
}

// slackColorForRisk returns a Slack attachment color based on risk score.
func slackColorForRisk(risk float64) string {
	switch {
	case risk >= 0.8:
		return "#FF0000" // Red
	case risk >= 0.5:
		return "#FF6600" // Orange
	case risk > 0:
		return "#FFCC00" // Yellow
	default:
		return "#36A64F" // Green
	}
}
