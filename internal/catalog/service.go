package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/stripe"
)

const (
	pendingProductID = "pending"
	priceModelKey    = "pricing_model"

	MaxIntervalCount = 12
	MaxTrialDays     = 365
)

var (
	maxAmount        = decimal.NewFromInt(999999)
	minorUnitsFactor = decimal.NewFromInt(100)
)

// Service exposes admin catalog operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*CreateProductResult, error)
	ListProducts(ctx context.Context) ([]ProductSummary, error)
}

// CreateProductInput holds the validated payload to create a product and its price.
// Amount is in major units.
type CreateProductInput struct {
	Name           string
	Description    *string
	PricingModel   enums.PricingModel
	Amount         decimal.Decimal
	Currency       enums.Currency
	Interval       enums.BillingInterval
	IntervalCount  int
	TrialDays      *int
	RequirePayment bool
}

// CreateProductResult returns the stored product alongside the processor ids.
type CreateProductResult struct {
	Product         models.Product `json:"product"`
	StripeProductID string         `json:"stripe_product_id"`
	StripePriceID   string         `json:"stripe_price_id"`
}

// ProductSummary is a product listing row.
type ProductSummary struct {
	models.Product
	SubscriptionCount int64 `json:"subscription_count"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the catalog service dependencies.
type ServiceParams struct {
	Repo     Repository
	Catalog  stripe.Catalog
	TxRunner txRunner
	Logger   *logger.Logger
}

type service struct {
	repo    Repository
	catalog stripe.Catalog
	tx      txRunner
	logg    *logger.Logger
}

// NewService constructs the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe catalog required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		tx:      params.TxRunner,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*CreateProductResult, error) {
	input, err := normalizeCreateInput(input)
	if err != nil {
		return nil, err
	}
	amountMinor := ToMinorUnits(input.Amount)

	stripeProductID, err := s.catalog.CreateProduct(ctx, stripe.ProductInput{
		Name:        input.Name,
		Description: input.Description,
		Metadata:    map[string]string{stripe.ProductMetadataKey: pendingProductID},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe product")
	}

	priceIn := stripe.PriceInput{
		StripeProductID: stripeProductID,
		AmountMinor:     amountMinor,
		Currency:        input.Currency.ProcessorCode(),
		Metadata:        map[string]string{priceModelKey: input.PricingModel.String()},
	}
	if input.PricingModel.IsRecurring() {
		priceIn.Interval = input.Interval.ProcessorInterval()
		priceIn.IntervalCount = int64(input.IntervalCount)
		priceIn.Metered = input.PricingModel == enums.PricingModelMeteredBilling
	}
	stripePriceID, err := s.catalog.CreatePrice(ctx, priceIn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe price")
	}

	price := models.Price{
		StripePriceID:   stripePriceID,
		AmountCents:     amountMinor,
		Currency:        input.Currency,
		BillingInterval: input.Interval,
		IntervalCount:   input.IntervalCount,
		IsActive:        true,
	}
	if input.TrialDays != nil && *input.TrialDays > 0 {
		days := *input.TrialDays
		trialType := enums.TrialTypeFor(input.RequirePayment)
		price.TrialDays = &days
		price.TrialType = &trialType
	}
	product := models.Product{
		StripeProductID: stripeProductID,
		Name:            input.Name,
		Description:     input.Description,
		PricingModel:    input.PricingModel,
		IsActive:        true,
		Prices:          []models.Price{price},
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateProduct(ctx, &product)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist product")
	}

	if err := s.catalog.TagProduct(ctx, stripeProductID, map[string]string{
		stripe.ProductMetadataKey: product.ID.String(),
	}); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":        product.ID.String(),
			"stripe_product_id": stripeProductID,
		})
		s.logg.Warn(logCtx, "failed to write product id back to stripe metadata")
	}

	return &CreateProductResult{
		Product:         product,
		StripeProductID: stripeProductID,
		StripePriceID:   stripePriceID,
	}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	counts, err := s.repo.CountSubscriptionsByProduct(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count subscriptions")
	}

	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		if p.Prices == nil {
			p.Prices = []models.Price{}
		}
		out = append(out, ProductSummary{Product: p, SubscriptionCount: counts[p.ID]})
	}
	return out, nil
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsFactor).Round(0).IntPart()
}

func normalizeCreateInput(input CreateProductInput) (CreateProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || len(input.Name) > 100 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "name must be 1-100 characters")
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed == "" {
			input.Description = nil
		} else {
			input.Description = &trimmed
		}
	}
	if !input.PricingModel.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing model")
	}
	if input.Amount.IsNegative() || input.Amount.GreaterThan(maxAmount) {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "amount must be between 0 and 999999")
	}
	if !input.Currency.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.Interval == "" {
		input.Interval = enums.BillingIntervalMonthly
	}
	if !input.Interval.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing interval")
	}
	if input.IntervalCount == 0 {
		input.IntervalCount = 1
	}
	if input.IntervalCount < 1 || input.IntervalCount > MaxIntervalCount {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "interval_count must be between 1 and 12")
	}
	if input.TrialDays != nil && (*input.TrialDays < 0 || *input.TrialDays > MaxTrialDays) {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "trial_days must be between 0 and 365")
	}
	return input, nil
}
