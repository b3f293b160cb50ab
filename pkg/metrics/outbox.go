package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics records outbox publisher results per topic.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydrus",
		Name:      "outbox_published_total",
		Help:      "Outbox rows published to Pub/Sub.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydrus",
		Name:      "outbox_publish_failures_total",
		Help:      "Outbox publish failures by terminal flag.",
	}, []string{"topic", "terminal"})
	reg.MustRegister(published, failed)
	return &OutboxMetrics{published: published, failed: failed}
}

func (m *OutboxMetrics) IncPublished(topic string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *OutboxMetrics) IncFailed(topic string, terminal bool) {
	if m == nil || m.failed == nil {
		return
	}
	label := "false"
	if terminal {
		label = "true"
	}
	m.failed.WithLabelValues(normalizeLabel(topic), label).Inc()
}
