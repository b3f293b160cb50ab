package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/registry"
)

const dunningTopic = "hydrus-dunning"

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{dunningEvent(t, 0), dunningEvent(t, 0)}}
	snk := &fakeSink{errs: []error{errors.New("transient"), nil}}
	recorder := &fakeMetrics{}
	svc := newTestService(t, repo, snk, &fakeRegistry{resolved: dunningResolved()}, recorder, config.OutboxConfig{})

	n, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	require.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	require.Equal(t, 1, recorder.published[dunningTopic])
	require.Equal(t, 1, recorder.retryable[dunningTopic])
}

func TestProcessBatchPublishesEnvelopeWithAttributes(t *testing.T) {
	event := dunningEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	snk := &fakeSink{}
	svc := newTestService(t, repo, snk, &fakeRegistry{resolved: dunningResolved()}, nil, config.OutboxConfig{})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, snk.sent, 1)
	msg := snk.sent[0]
	require.Equal(t, dunningTopic, snk.topics[0])
	require.Equal(t, string(enums.EventDunningPaymentFailed), msg.Attributes["event_type"])
	require.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	require.Equal(t, event.ID.String(), msg.Attributes["event_id"])
	require.JSONEq(t, string(event.Payload), string(msg.Data))
}

func TestProcessBatchParksUnresolvableRow(t *testing.T) {
	event := dunningEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	recorder := &fakeMetrics{}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	snk := &fakeSink{}
	svc := newTestService(t, repo, snk, reg, recorder, config.OutboxConfig{})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	require.Empty(t, repo.published)
	require.Empty(t, snk.sent, "unresolvable rows must not reach the broker")
	require.Equal(t, 1, recorder.terminal[""])
}

func TestProcessBatchParksPermanentSendError(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{dunningEvent(t, 0)}}
	recorder := &fakeMetrics{}
	snk := &fakeSink{errs: []error{registry.NewNonRetryableError(errors.New("no publisher"))}}
	svc := newTestService(t, repo, snk, &fakeRegistry{resolved: dunningResolved()}, recorder, config.OutboxConfig{})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.terminal, 1)
	require.Equal(t, 1, recorder.terminal[dunningTopic])
}

func TestProcessBatchParksOnLastAttempt(t *testing.T) {
	event := dunningEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	recorder := &fakeMetrics{}
	snk := &fakeSink{errs: []error{errors.New("transient")}}
	svc := newTestService(t, repo, snk, &fakeRegistry{resolved: dunningResolved()}, recorder, config.OutboxConfig{MaxAttempts: 2})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	require.Empty(t, repo.failed, "parked row should not also count as a retry")
	require.Equal(t, 1, recorder.terminal[dunningTopic])
	require.ErrorContains(t, repo.terminalErr, "gave up after 2 attempts")
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeSink{}, &fakeRegistry{}, nil, config.OutboxConfig{})
	n, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestProcessBatchSurfacesRepositoryError(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{dunningEvent(t, 0)}, markErr: errors.New("db gone")}
	svc := newTestService(t, repo, &fakeSink{}, &fakeRegistry{resolved: dunningResolved()}, nil, config.OutboxConfig{})
	_, err := svc.processBatch(context.Background())
	require.ErrorContains(t, err, "db gone")
}

func TestPollBackoff(t *testing.T) {
	b := newPollBackoff(100*time.Millisecond, time.Second)
	first := b.failure()
	require.GreaterOrEqual(t, first, 200*time.Millisecond)
	require.Less(t, first, 251*time.Millisecond)
	for range 5 {
		b.failure()
	}
	require.Equal(t, time.Second, b.current)
	idle := b.idle()
	require.Equal(t, 100*time.Millisecond, b.current)
	require.Less(t, idle, 126*time.Millisecond)
}

func TestRunReportsFailedPing(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeSink{}, &fakeRegistry{}, nil, config.OutboxConfig{})
	svc.broker = fakePinger{err: errors.New("unreachable")}
	require.ErrorContains(t, svc.Run(context.Background()), "pubsub ping")
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeSink{}, &fakeRegistry{}, nil, config.OutboxConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestPubsubSinkRejectsUnknownTopic(t *testing.T) {
	_, err := pubsubSink{client: nilPublishers{}}.Send(context.Background(), "missing", &gcppubsub.Message{})
	var permanent registry.NonRetryableError
	require.ErrorAs(t, err, &permanent)
}

func newTestService(t *testing.T, repo outboxRepository, snk sink, res resolver, recorder publishMetrics, cfg config.OutboxConfig) *Service {
	t.Helper()
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	cfg.PollIntervalMS = 10
	params := ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         fakeDB{},
		Broker:     fakePinger{},
		Sink:       snk,
		Repository: repo,
		Registry:   res,
	}
	if recorder != nil {
		params.Metrics = recorder
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func dunningEvent(tb testing.TB, attempts int) models.OutboxEvent {
	tb.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"stripe_invoice_id":"in_1"}`),
	})
	require.NoError(tb, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventDunningPaymentFailed,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

func dunningResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateSubscription,
			Topic:         dunningTopic,
		},
		Payload: &payloads.DunningPaymentFailedEvent{},
	}
}

type fakeRepo struct {
	events      []models.OutboxEvent
	published   []uuid.UUID
	failed      []uuid.UUID
	terminal    []uuid.UUID
	terminalErr error
	markErr     error
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return f.markErr
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return f.markErr
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, err error, _ int) error {
	f.terminal = append(f.terminal, id)
	f.terminalErr = err
	return f.markErr
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeSink struct {
	errs   []error
	sent   []*gcppubsub.Message
	topics []string
}

func (f *fakeSink) Send(_ context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	f.sent = append(f.sent, msg)
	f.topics = append(f.topics, topic)
	if len(f.errs) == 0 {
		return "server-id", nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return "server-id", err
}

type nilPublishers struct{}

func (nilPublishers) Publisher(string) *gcppubsub.Publisher { return nil }

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	return &resolved, nil
}

type fakeMetrics struct {
	published map[string]int
	retryable map[string]int
	terminal  map[string]int
}

func (f *fakeMetrics) IncPublished(topic string) {
	if f.published == nil {
		f.published = map[string]int{}
	}
	f.published[topic]++
}

func (f *fakeMetrics) IncFailed(topic string, terminal bool) {
	if f.retryable == nil {
		f.retryable = map[string]int{}
		f.terminal = map[string]int{}
	}
	if terminal {
		f.terminal[topic]++
		return
	}
	f.retryable[topic]++
}
