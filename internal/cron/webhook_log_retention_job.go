package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

// The processor retries a delivery for three days, so anything shorter than
// that would let a late retry through the dedup check.
const (
	webhookLogRetentionDays = 90
	minWebhookLogRetention  = 7
)

type WebhookLogRetentionJobParams struct {
	Logger     *logger.Logger
	Repository webhookLogPruner
	Retention  int
	Metrics    rowsRecorder
}

type webhookLogPruner interface {
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewWebhookLogRetentionJob prunes processed webhook log entries. Entries that
// never finished processing are kept.
func NewWebhookLogRetentionJob(params WebhookLogRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repository == nil {
		return nil, errors.New("webhook log repository required")
	}
	days := params.Retention
	if days <= 0 {
		days = webhookLogRetentionDays
	}
	if days < minWebhookLogRetention {
		return nil, fmt.Errorf("webhook log retention must be at least %d days", minWebhookLogRetention)
	}
	return &webhookLogRetentionJob{
		retention: retention{
			job:     "webhook-log-retention",
			days:    days,
			logg:    params.Logger,
			metrics: params.Metrics,
			now:     time.Now,
		},
		repo: params.Repository,
	}, nil
}

type webhookLogRetentionJob struct {
	retention
	repo webhookLogPruner
}

func (j *webhookLogRetentionJob) Name() string { return j.job }

func (j *webhookLogRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	deleted, err := j.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("webhook log retention: %w", err)
	}
	j.report(ctx, cutoff, deleted)
	return nil
}
