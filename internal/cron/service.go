package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
)

const (
	defaultInterval   = 24 * time.Hour
	defaultJobTimeout = 10 * time.Minute
)

// ErrLockHeld is returned by RunOnce when another worker owns the cycle.
var ErrLockHeld = errors.New("cron lock held by another worker")

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Locker     Locker
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered jobs once per interval. Only the worker holding
// the lease runs a cycle; the others skip it.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	locker     Locker
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Registry == nil:
		return nil, fmt.Errorf("job registry required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		locker:     params.Locker,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		switch err := s.RunOnce(ctx); {
		case errors.Is(err, ErrLockHeld):
			s.logg.Info(ctx, "cron cycle skipped, lock held elsewhere")
		case err != nil && ctx.Err() == nil:
			s.logg.Error(ctx, "cron cycle finished with failures", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs the named jobs, or all of them, under the cron lease. Every
// job runs even if an earlier one fails; the failures are combined.
func (s *Service) RunOnce(ctx context.Context, names ...string) error {
	jobs, err := s.registry.Select(names...)
	if err != nil {
		return err
	}
	lease, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	defer func() {
		// the cycle context may already be canceled
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "release cron lock", relErr)
		}
	}()

	var errs error
	for _, job := range jobs {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		if jobErr := s.runJob(ctx, job); jobErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
		elapsed := time.Since(start)
		s.metrics.RecordRun(name, elapsed, err)
		doneCtx := s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
		if err != nil {
			s.logg.Error(doneCtx, "cron job failed", err)
			return
		}
		s.logg.Info(doneCtx, "cron job done")
	}()
	return job.Run(jobCtx)
}
