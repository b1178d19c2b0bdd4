// Package observability groups the Prometheus instruments and the metrics
// endpoint for the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ChecksTotal    *prometheus.CounterVec
	DetectionsT    *prometheus.CounterVec
	Redactions     prometheus.Counter
	BlockedSends   prometheus.Counter
	CheckDuration  prometheus.Histogram
	RequestsTotal  *prometheus.CounterVec
	StreamFailures prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return newMetrics(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers instruments on the given registerer. Useful for
// tests that need an isolated registry.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	return newMetrics(namespace, reg)
}

func newMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Safety checks by recommendation tier.",
		}, []string{"recommendation"}),
		DetectionsT: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "PII detections by category.",
		}, []string{"category"}),
		Redactions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redactions_total",
			Help:      "Redaction operations performed.",
		}),
		BlockedSends: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_sends_total",
			Help:      "Outbound messages blocked by the gate.",
		}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_ms",
			Help:      "Safety check duration in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		StreamFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_failures_total",
			Help:      "Verdict events that failed to publish.",
		}),
	}
}

func (m *Metrics) ObserveCheckDuration(d time.Duration) {
	m.CheckDuration.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
