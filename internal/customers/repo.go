package customers

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hydrus-backend/internal/repo"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/pagination"
)

// Repository handles customer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, customer *models.Customer) (bool, error)
	FindByStripeID(ctx context.Context, stripeCustomerID string) (*models.Customer, error)
	List(ctx context.Context, query ListQuery) ([]models.Customer, int64, error)
}

// ListQuery configures customer listings.
type ListQuery struct {
	Search string
	Page   pagination.Params
}

type repository struct {
	repo.Base
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

// CreateIfAbsent inserts the customer unless its processor id is already
// stored; it reports whether a row was written.
func (r *repository) CreateIfAbsent(ctx context.Context, customer *models.Customer) (bool, error) {
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_customer_id"}},
			DoNothing: true,
		}).
		Create(customer)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByStripeID(ctx context.Context, stripeCustomerID string) (*models.Customer, error) {
	return repo.First[models.Customer](r.DB(ctx).Where("stripe_customer_id = ?", stripeCustomerID))
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Customer, int64, error) {
	page := query.Page.Normalize()

	base := r.DB(ctx).Model(&models.Customer{})
	if term := strings.ToLower(strings.TrimSpace(query.Search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		base = base.Where("(LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(name, '')) LIKE ? ESCAPE '\\')", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	err := base.Session(&gorm.Session{}).
		Preload("Subscriptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Subscriptions.Product").
		Preload("Subscriptions.Price").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
