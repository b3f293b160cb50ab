package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/stripe"
)

type stubCatalog struct {
	products []stripe.ProductInput
	prices   []stripe.PriceInput
	tags     map[string]map[string]string
	tagErr   error
	priceErr error
}

func (s *stubCatalog) CreateProduct(_ context.Context, in stripe.ProductInput) (string, error) {
	s.products = append(s.products, in)
	return "prod_123", nil
}

func (s *stubCatalog) CreatePrice(_ context.Context, in stripe.PriceInput) (string, error) {
	if s.priceErr != nil {
		return "", s.priceErr
	}
	s.prices = append(s.prices, in)
	return "price_123", nil
}

func (s *stubCatalog) TagProduct(_ context.Context, id string, metadata map[string]string) error {
	if s.tags == nil {
		s.tags = map[string]map[string]string{}
	}
	s.tags[id] = metadata
	return s.tagErr
}

func (s *stubCatalog) CreateCustomer(context.Context, stripe.CustomerInput) (string, error) {
	return "", errors.New("unused")
}

func newTestService(t *testing.T, catalog *stubCatalog) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		Catalog:  catalog,
		TxRunner: client,
	})
	require.NoError(t, err)
	return svc, client
}

func intPtr(v int) *int { return &v }

func TestCreateProductStandardSubscription(t *testing.T) {
	catalog := &stubCatalog{}
	svc, client := newTestService(t, catalog)

	result, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:           "Pro plan",
		PricingModel:   enums.PricingModelStandardSubscription,
		Amount:         decimal.RequireFromString("19.99"),
		Currency:       enums.CurrencyUSD,
		Interval:       enums.BillingIntervalYearly,
		TrialDays:      intPtr(14),
		RequirePayment: true,
	})
	require.NoError(t, err)

	require.Len(t, catalog.prices, 1)
	price := catalog.prices[0]
	assert.Equal(t, int64(1999), price.AmountMinor)
	assert.Equal(t, "usd", price.Currency)
	assert.Equal(t, "year", price.Interval)
	assert.Equal(t, int64(1), price.IntervalCount)
	assert.False(t, price.Metered)
	assert.Equal(t, "pending", catalog.products[0].Metadata[stripe.ProductMetadataKey])
	assert.Equal(t, result.Product.ID.String(), catalog.tags["prod_123"][stripe.ProductMetadataKey])

	var stored models.Price
	require.NoError(t, client.DB().Where("stripe_price_id = ?", "price_123").First(&stored).Error)
	assert.Equal(t, int64(1999), stored.AmountCents)
	require.NotNil(t, stored.TrialType)
	assert.Equal(t, enums.TrialTypePaid, *stored.TrialType)
	assert.Equal(t, 14, *stored.TrialDays)
}

func TestCreateProductShapesPriceByModel(t *testing.T) {
	t.Run("metered", func(t *testing.T) {
		catalog := &stubCatalog{}
		svc, _ := newTestService(t, catalog)
		_, err := svc.CreateProduct(context.Background(), CreateProductInput{
			Name:          "API calls",
			PricingModel:  enums.PricingModelMeteredBilling,
			Amount:        decimal.RequireFromString("0.05"),
			Currency:      enums.CurrencyEUR,
			Interval:      enums.BillingIntervalMonthly,
			IntervalCount: 3,
		})
		require.NoError(t, err)
		assert.True(t, catalog.prices[0].Metered)
		assert.Equal(t, "month", catalog.prices[0].Interval)
		assert.Equal(t, int64(3), catalog.prices[0].IntervalCount)
	})

	t.Run("prepaid is one-time", func(t *testing.T) {
		catalog := &stubCatalog{}
		svc, client := newTestService(t, catalog)
		_, err := svc.CreateProduct(context.Background(), CreateProductInput{
			Name:         "Credits",
			PricingModel: enums.PricingModelPrepaidCredits,
			Amount:       decimal.RequireFromString("100"),
			Currency:     enums.CurrencyGBP,
		})
		require.NoError(t, err)
		assert.Empty(t, catalog.prices[0].Interval)

		var stored models.Price
		require.NoError(t, client.DB().First(&stored).Error)
		assert.Nil(t, stored.TrialType)
	})
}

func TestCreateProductTagFailureIsNotFatal(t *testing.T) {
	catalog := &stubCatalog{tagErr: errors.New("stripe down")}
	svc, _ := newTestService(t, catalog)

	result, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:         "Basic",
		PricingModel: enums.PricingModelStandardSubscription,
		Amount:       decimal.RequireFromString("5"),
		Currency:     enums.CurrencyUSD,
	})
	require.NoError(t, err)
	assert.Equal(t, "prod_123", result.StripeProductID)
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	catalog := &stubCatalog{}
	svc, _ := newTestService(t, catalog)

	cases := map[string]CreateProductInput{
		"blank name":     {Name: " ", PricingModel: enums.PricingModelStandardSubscription, Currency: enums.CurrencyUSD},
		"negative":       {Name: "x", PricingModel: enums.PricingModelStandardSubscription, Currency: enums.CurrencyUSD, Amount: decimal.NewFromInt(-1)},
		"too large":      {Name: "x", PricingModel: enums.PricingModelStandardSubscription, Currency: enums.CurrencyUSD, Amount: decimal.NewFromInt(1000000)},
		"interval count": {Name: "x", PricingModel: enums.PricingModelStandardSubscription, Currency: enums.CurrencyUSD, IntervalCount: 13},
		"trial":          {Name: "x", PricingModel: enums.PricingModelStandardSubscription, Currency: enums.CurrencyUSD, TrialDays: intPtr(400)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), input)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	assert.Empty(t, catalog.products)
}

func TestCreateProductPriceFailureSkipsPersistence(t *testing.T) {
	catalog := &stubCatalog{priceErr: errors.New("declined")}
	svc, client := newTestService(t, catalog)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:         "Basic",
		PricingModel: enums.PricingModelStandardSubscription,
		Amount:       decimal.RequireFromString("5"),
		Currency:     enums.CurrencyUSD,
	})
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	var count int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListProductsWithCounts(t *testing.T) {
	svc, client := newTestService(t, &stubCatalog{})
	conn := client.DB()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	older := models.Product{StripeProductID: "prod_old", Name: "Old", PricingModel: enums.PricingModelStandardSubscription, IsActive: true, CreatedAt: base}
	newer := models.Product{StripeProductID: "prod_new", Name: "New", PricingModel: enums.PricingModelStandardSubscription, IsActive: true, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, conn.Create(&older).Error)
	require.NoError(t, conn.Create(&newer).Error)

	active := models.Price{ProductID: older.ID, StripePriceID: "price_a", AmountCents: 100, Currency: enums.CurrencyUSD, BillingInterval: enums.BillingIntervalMonthly, IntervalCount: 1, IsActive: true}
	inactive := models.Price{ProductID: older.ID, StripePriceID: "price_b", AmountCents: 100, Currency: enums.CurrencyUSD, BillingInterval: enums.BillingIntervalMonthly, IntervalCount: 1, IsActive: true}
	require.NoError(t, conn.Create(&active).Error)
	require.NoError(t, conn.Create(&inactive).Error)
	require.NoError(t, conn.Model(&inactive).Update("is_active", false).Error)

	customer := models.Customer{StripeCustomerID: "cus_1", Email: "c@example.com"}
	require.NoError(t, conn.Create(&customer).Error)
	sub := models.Subscription{
		CustomerID: customer.ID, ProductID: older.ID, PriceID: active.ID,
		StripeSubscriptionID: "sub_1", Status: enums.SubscriptionStatusActive,
		CurrentPeriodStart: base, CurrentPeriodEnd: base.Add(24 * time.Hour), Quantity: 1,
	}
	require.NoError(t, conn.Create(&sub).Error)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod_new", products[0].StripeProductID)
	assert.Zero(t, products[0].SubscriptionCount)
	assert.Equal(t, int64(1), products[1].SubscriptionCount)
	require.Len(t, products[1].Prices, 1)
	assert.Equal(t, "price_a", products[1].Prices[0].StripePriceID)
}

func TestToMinorUnitsRounds(t *testing.T) {
	assert.Equal(t, int64(1001), ToMinorUnits(decimal.RequireFromString("10.005")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
	assert.Equal(t, int64(99999900), ToMinorUnits(decimal.NewFromInt(999999)))
}
