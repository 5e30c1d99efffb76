// Package metrics exposes Prometheus collectors for the HTTP API, domain
// events and scheduled jobs.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eventsync/server/internal/infra/events"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Collaboration metrics
	EventsPublishedTotal    *prometheus.CounterVec
	InvitationsExpiredTotal prometheus.Counter
	SweepDuration           prometheus.Histogram
	SweepErrorsTotal        prometheus.Counter
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "eventsync"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		EventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "collaboration",
				Name:      "events_total",
				Help:      "Total number of collaboration events published",
			},
			[]string{"type"},
		),
		InvitationsExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "collaboration",
				Name:      "invitations_expired_total",
				Help:      "Total number of invitations expired by the sweeper",
			},
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "collaboration",
				Name:      "invitation_sweep_duration_seconds",
				Help:      "Duration of invitation expiry sweeps",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 30},
			},
		),
		SweepErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "collaboration",
				Name:      "invitation_sweep_errors_total",
				Help:      "Total number of failed invitation sweeps",
			},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSweep records one invitation sweep.
func (m *Metrics) RecordSweep(expired int, duration time.Duration, err error) {
	m.SweepDuration.Observe(duration.Seconds())
	if err != nil {
		m.SweepErrorsTotal.Inc()
		return
	}
	m.InvitationsExpiredTotal.Add(float64(expired))
}

// EventCounter returns a bus handler that counts every published event by type.
func (m *Metrics) EventCounter() events.Handler {
	return events.NewHandlerFunc("metrics-event-counter", nil, func(_ context.Context, event events.Event) error {
		m.EventsPublishedTotal.WithLabelValues(event.EventType()).Inc()
		return nil
	})
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
