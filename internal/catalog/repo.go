package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/internal/repo"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
)

// Repository handles product and price persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	FindPriceByStripeID(ctx context.Context, stripePriceID string) (*models.Price, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CountSubscriptionsByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

// CreateProduct inserts the product together with its Prices.
func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *repository) FindPriceByStripeID(ctx context.Context, stripePriceID string) (*models.Price, error) {
	return repo.First[models.Price](r.DB(ctx).Where("stripe_price_id = ?", stripePriceID))
}

// ListProducts returns products newest first with their active prices.
func (r *repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Preload("Prices", "is_active = ?", true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) CountSubscriptionsByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Total     int64
	}
	err := r.DB(ctx).
		Model(&models.Subscription{}).
		Select("product_id, COUNT(*) AS total").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ProductID] = row.Total
	}
	return counts, nil
}
