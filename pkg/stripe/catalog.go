package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// ProductMetadataKey links a processor product back to the local record.
const ProductMetadataKey = "hydrus_product_id"

const (
	usageTypeMetered     = "metered"
	billingSchemePerUnit = "per_unit"
)

// Catalog is the slice of the processor API the admin surface needs.
type Catalog interface {
	CreateProduct(ctx context.Context, in ProductInput) (string, error)
	CreatePrice(ctx context.Context, in PriceInput) (string, error)
	TagProduct(ctx context.Context, stripeProductID string, metadata map[string]string) error
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)
}

type ProductInput struct {
	Name        string
	Description *string
	Metadata    map[string]string
}

// PriceInput describes a processor price. Interval is empty for one-time prices.
type PriceInput struct {
	StripeProductID string
	AmountMinor     int64
	Currency        string
	Interval        string
	IntervalCount   int64
	Metered         bool
	Metadata        map[string]string
}

type CustomerInput struct {
	Email    string
	Name     string
	Metadata map[string]string
}

var _ Catalog = (*Client)(nil)

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (string, error) {
	params := &stripe.ProductCreateParams{Name: stripe.String(in.Name)}
	if in.Description != nil && *in.Description != "" {
		params.Description = in.Description
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	product, err := c.api.V1Products.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe product: %w", err)
	}
	return product.ID, nil
}

func (c *Client) CreatePrice(ctx context.Context, in PriceInput) (string, error) {
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(in.StripeProductID),
		UnitAmount: stripe.Int64(in.AmountMinor),
		Currency:   stripe.String(in.Currency),
	}
	if in.Interval != "" {
		recurring := &stripe.PriceCreateRecurringParams{
			Interval:      stripe.String(in.Interval),
			IntervalCount: stripe.Int64(in.IntervalCount),
		}
		if in.Metered {
			params.BillingScheme = stripe.String(billingSchemePerUnit)
			recurring.UsageType = stripe.String(usageTypeMetered)
			if c.usageMeterID != "" {
				recurring.Meter = stripe.String(c.usageMeterID)
			}
		}
		params.Recurring = recurring
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	price, err := c.api.V1Prices.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe price: %w", err)
	}
	return price.ID, nil
}

func (c *Client) TagProduct(ctx context.Context, stripeProductID string, metadata map[string]string) error {
	params := &stripe.ProductUpdateParams{}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if _, err := c.api.V1Products.Update(ctx, stripeProductID, params); err != nil {
		return fmt.Errorf("update stripe product metadata: %w", err)
	}
	return nil
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	params := &stripe.CustomerCreateParams{Email: stripe.String(in.Email)}
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	customer, err := c.api.V1Customers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return customer.ID, nil
}
