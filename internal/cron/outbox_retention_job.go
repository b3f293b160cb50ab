package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	outboxDeleteBatch   = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Retention  int
	BatchSize  int
	Metrics    rowsRecorder
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

// NewOutboxRetentionJob prunes outbox rows published more than Retention
// days ago, BatchSize rows per transaction so a backlog never holds one
// long lock on the table.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	days := params.Retention
	if days <= 0 {
		days = outboxRetentionDays
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = outboxDeleteBatch
	}
	return &outboxRetentionJob{
		retention: retention{
			job:     "outbox-retention",
			days:    days,
			logg:    params.Logger,
			metrics: params.Metrics,
			now:     time.Now,
		},
		db:    params.DB,
		repo:  params.Repository,
		batch: batch,
	}, nil
}

type outboxRetentionJob struct {
	retention
	db    txRunner
	repo  outboxRetentionRepo
	batch int
}

func (j *outboxRetentionJob) Name() string { return j.job }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var total int64
	for {
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.batch)
			return err
		})
		if err != nil {
			j.report(ctx, cutoff, total)
			return fmt.Errorf("outbox retention: %w", err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
		if err := ctx.Err(); err != nil {
			j.report(ctx, cutoff, total)
			return fmt.Errorf("outbox retention: %w", err)
		}
	}
	j.report(ctx, cutoff, total)
	return nil
}
