package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	maxPoll            = 10 * time.Second
	defaultMaxAttempts = 10
	sendTimeout        = 15 * time.Second
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publishMetrics interface {
	IncPublished(topic string)
	IncFailed(topic string, terminal bool)
}

type ServiceParams struct {
	Config     config.OutboxConfig
	Logger     *logger.Logger
	DB         txRunner
	Broker     pinger
	Sink       sink
	Repository outboxRepository
	Registry   resolver
	Metrics    publishMetrics
}

// Service drains outbox_events onto Pub/Sub. Each batch runs in one
// transaction so a row's publish and its status update commit together.
type Service struct {
	logg        *logger.Logger
	db          txRunner
	broker      pinger
	sink        sink
	repo        outboxRepository
	registry    resolver
	metrics     publishMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Broker == nil || p.Sink == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}
	s := &Service{
		logg:        p.Logger,
		db:          p.DB,
		broker:      p.Broker,
		sink:        p.Sink,
		repo:        p.Repository,
		registry:    p.Registry,
		metrics:     p.Metrics,
		batchSize:   p.Config.BatchSize,
		maxAttempts: p.Config.MaxAttempts,
		poll:        time.Duration(p.Config.PollIntervalMS) * time.Millisecond,
	}
	if s.metrics == nil {
		s.metrics = metrics.NewOutboxMetrics(nil)
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.poll <= 0 {
		s.poll = defaultPoll
	}
	return s, nil
}

// Run polls until ctx is canceled. A full batch is followed immediately by
// the next one; an empty or failed batch waits.
func (s *Service) Run(ctx context.Context) error {
	if err := multierr.Combine(
		wrapPing("database", s.db.Ping(ctx)),
		wrapPing("pubsub", s.broker.Ping(ctx)),
	); err != nil {
		return err
	}

	backoff := newPollBackoff(s.poll, maxPoll)
	for ctx.Err() == nil {
		n, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait = backoff.failure()
		case n >= s.batchSize:
			backoff.idle()
			continue
		default:
			wait = backoff.idle()
		}
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	return ctx.Err()
}

func wrapPing(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s ping: %w", name, err)
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeParked
)

type delivery struct {
	outcome outcome
	topic   string
	err     error
}

// processBatch returns the number of rows it handled.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	var handled int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		for _, event := range events {
			d := s.deliver(ctx, event)
			if err := s.record(ctx, tx, event, d); err != nil {
				return err
			}
			handled++
		}
		return nil
	})
	return handled, err
}

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return delivery{outcome: outcomeParked, err: err}
	}
	topic := resolved.Descriptor.Topic

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, err = s.sink.Send(sendCtx, topic, buildMessage(event, resolved))

	var permanent registry.NonRetryableError
	switch {
	case err == nil:
		return delivery{outcome: outcomePublished, topic: topic}
	case errors.As(err, &permanent):
		return delivery{outcome: outcomeParked, topic: topic, err: err}
	case event.AttemptCount+1 >= s.maxAttempts:
		return delivery{outcome: outcomeParked, topic: topic, err: fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, err)}
	default:
		return delivery{outcome: outcomeRetry, topic: topic, err: err}
	}
}

// record writes the delivery result back to the row. Parked rows sit at the
// attempt ceiling with their payload and last error, so resetting
// attempt_count replays them.
func (s *Service) record(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
		"topic":         d.topic,
	})

	var err error
	switch d.outcome {
	case outcomePublished:
		err = s.repo.MarkPublishedTx(tx, event.ID)
		s.metrics.IncPublished(d.topic)
		s.logg.Debug(logCtx, "outbox event published")
	case outcomeRetry:
		err = s.repo.MarkFailedTx(tx, event.ID, d.err)
		s.metrics.IncFailed(d.topic, false)
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed, will retry")
	case outcomeParked:
		err = s.repo.MarkTerminalTx(tx, event.ID, d.err, s.maxAttempts)
		s.metrics.IncFailed(d.topic, true)
		s.logg.Error(logCtx, "outbox event parked", d.err)
	}
	if err != nil {
		return fmt.Errorf("update outbox row %s: %w", event.ID, err)
	}
	return nil
}
