package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes used as label values.
const (
	OutcomeProcessed        = "processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeMalformed        = "malformed"
	OutcomeFailed           = "failed"
)

// WebhookMetrics records processor webhook handling.
type WebhookMetrics struct {
	events           *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	missingReference *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydrus",
		Name:      "webhook_events_total",
		Help:      "Processor webhook deliveries by event type and outcome.",
	}, []string{"event_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hydrus",
		Name:      "webhook_duration_seconds",
		Help:      "Time spent handling a processor webhook delivery.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})
	missing := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydrus",
		Name:      "webhook_missing_reference_total",
		Help:      "Events skipped because a referenced local record does not exist.",
	}, []string{"event_type"})
	reg.MustRegister(events, duration, missing)
	return &WebhookMetrics{events: events, duration: duration, missingReference: missing}
}

// Observe records one delivery.
func (m *WebhookMetrics) Observe(eventType, outcome string, elapsed time.Duration) {
	if m == nil || m.events == nil {
		return
	}
	eventType = normalizeLabel(eventType)
	m.events.WithLabelValues(eventType, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

// IncMissingReference counts a warn-and-skip on an unknown local record.
func (m *WebhookMetrics) IncMissingReference(eventType string) {
	if m == nil || m.missingReference == nil {
		return
	}
	m.missingReference.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
