package subscriptions

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hydrus-backend/internal/repo"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
)

// Repository handles subscription persistence keyed by the processor id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, sub *models.Subscription) (bool, error)
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	UpdateByStripeID(ctx context.Context, stripeSubscriptionID string, changes map[string]any) (bool, error)
	List(ctx context.Context, query ListQuery) ([]models.Subscription, error)
}

// ListQuery configures subscription listings.
type ListQuery struct {
	Status *enums.SubscriptionStatus
	Limit  int
}

type repository struct {
	repo.Base
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) CreateIfAbsent(ctx context.Context, sub *models.Subscription) (bool, error) {
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoNothing: true,
		}).
		Create(sub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	return repo.First[models.Subscription](r.DB(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID))
}

// UpdateByStripeID applies changes to the matching row and reports whether one existed.
// It never inserts.
func (r *repository) UpdateByStripeID(ctx context.Context, stripeSubscriptionID string, changes map[string]any) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Subscription, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	q := r.DB(ctx).
		Preload("Product").
		Preload("Price").
		Order("created_at DESC").
		Limit(limit)
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	var subs []models.Subscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
