package webhooklog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hydrus-backend/internal/repo"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
)

// Repository persists the processor event audit log. The unique event_id
// column is the deduplication mechanism: InsertIfAbsent reports false when a
// row for the event already exists.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, entry *models.WebhookLog) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookLog, error)
	ListRecent(ctx context.Context, query ListQuery) ([]models.WebhookLog, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListQuery filters the admin audit view. Zero values mean no filter.
type ListQuery struct {
	Limit           int
	EventType       string
	UnprocessedOnly bool
}

const defaultListLimit = 50

type repository struct {
	repo.Base
}

// NewRepository returns a webhook log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) InsertIfAbsent(ctx context.Context, entry *models.WebhookLog) (bool, error) {
	if entry == nil {
		return false, errors.New("webhook log entry required")
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkProcessed(ctx context.Context, eventID string) error {
	res := r.DB(ctx).
		Model(&models.WebhookLog{}).
		Where("event_id = ?", eventID).
		Update("processed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookLog, error) {
	return repo.First[models.WebhookLog](r.DB(ctx).Where("event_id = ?", eventID))
}

// ListRecent returns the newest entries first. Unprocessed rows are the ones
// whose handler failed and that the processor is still redelivering.
func (r *repository) ListRecent(ctx context.Context, query ListQuery) ([]models.WebhookLog, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := r.DB(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if query.EventType != "" {
		q = q.Where("event_type = ?", query.EventType)
	}
	if query.UnprocessedOnly {
		q = q.Where("processed = ?", false)
	}
	var entries []models.WebhookLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteProcessedBefore prunes processed entries older than cutoff. Once a
// row is gone a redelivery of that event would be applied again, so cutoff
// must stay well past the processor's retry window.
func (r *repository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("processed = ?", true).
		Where("created_at < ?", cutoff).
		Delete(&models.WebhookLog{})
	return res.RowsAffected, res.Error
}
