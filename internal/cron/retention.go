package cron

import (
	"context"
	"time"

	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

const day = 24 * time.Hour

// rowsRecorder receives the number of rows a retention job removed.
type rowsRecorder interface {
	AddRowsDeleted(job string, n int64)
}

// retention is the part shared by the pruning jobs: a window in days, a clock
// and where to report what was removed.
type retention struct {
	job     string
	days    int
	logg    *logger.Logger
	metrics rowsRecorder
	now     func() time.Time
}

func (r *retention) cutoff() time.Time {
	return r.now().UTC().Add(-time.Duration(r.days) * day)
}

func (r *retention) report(ctx context.Context, cutoff time.Time, deleted int64) {
	if r.metrics != nil {
		r.metrics.AddRowsDeleted(r.job, deleted)
	}
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": r.days,
		"rows_deleted":   deleted,
	}), r.job+" cleanup complete")
}
