package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWebhookMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.Observe("invoice.payment_failed", OutcomeProcessed, 120*time.Millisecond)
	m.Observe("invoice.payment_failed", OutcomeDuplicate, 10*time.Millisecond)
	m.Observe("invoice.payment_failed", OutcomeDuplicate, 10*time.Millisecond)
	m.Observe("", OutcomeInvalidSignature, time.Millisecond)
	m.IncMissingReference("customer.subscription.created")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchCounterValue(mfs, "hydrus_webhook_events_total", map[string]string{
		"event_type": "invoice.payment_failed",
		"outcome":    OutcomeDuplicate,
	})
	if err != nil {
		t.Fatalf("fetch duplicate counter: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected duplicate=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "hydrus_webhook_events_total", map[string]string{
		"event_type": "unknown",
		"outcome":    OutcomeInvalidSignature,
	}); err != nil || got != 1 {
		t.Fatalf("expected invalid signature counted under unknown type, got %f (%v)", got, err)
	}

	if got, err := fetchCounterValue(mfs, "hydrus_webhook_missing_reference_total", map[string]string{
		"event_type": "customer.subscription.created",
	}); err != nil || got != 1 {
		t.Fatalf("expected missing reference=1, got %f (%v)", got, err)
	}

	mf := findMetricFamily(mfs, "hydrus_webhook_duration_seconds")
	if mf == nil {
		t.Fatal("duration histogram not exported")
	}
	var count uint64
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), map[string]string{"event_type": "invoice.payment_failed"}) {
			count = metric.GetHistogram().GetSampleCount()
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 duration samples, got %d", count)
	}
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("dunning")
	m.IncFailed("dunning", true)
	m.IncFailed("dunning", false)
	m.IncFailed("dunning", false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "hydrus_outbox_published_total", map[string]string{"topic": "dunning"}); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "hydrus_outbox_publish_failures_total", map[string]string{"topic": "dunning", "terminal": "false"}); err != nil || got != 2 {
		t.Fatalf("expected retryable failures=2, got %f (%v)", got, err)
	}
}

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.RecordRun("outbox-retention", 40*time.Millisecond, nil)
	m.RecordRun("webhook-log-retention", time.Second, errors.New("boom"))
	m.AddRowsDeleted("outbox-retention", 7)
	m.AddRowsDeleted("outbox-retention", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "hydrus_cron_rows_deleted_total", map[string]string{"job": "outbox-retention"}); err != nil || got != 7 {
		t.Fatalf("expected rows deleted=7, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "hydrus_cron_job_runs_total", map[string]string{"job": "webhook-log-retention", "result": "failure"}); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
	gauge := findMetricFamily(mfs, "hydrus_cron_job_last_success_timestamp_seconds")
	if gauge == nil || len(gauge.GetMetric()) != 1 {
		t.Fatalf("expected one last-success series, got %v", gauge)
	}
	if gauge.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatal("expected last-success timestamp to be set")
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var w *WebhookMetrics
	w.Observe("x", OutcomeProcessed, time.Second)
	w.IncMissingReference("x")
	NewWebhookMetrics(nil).Observe("x", OutcomeProcessed, time.Second)

	var o *OutboxMetrics
	o.IncPublished("t")
	o.IncFailed("t", true)

	var c *CronJobMetrics
	c.RecordRun("j", time.Second, nil)
	c.AddRowsDeleted("j", 3)
	NewCronJobMetrics(nil).RecordRun("j", time.Second, errors.New("x"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
