package enums

import "slices"

// PricingModel selects how a product's price is shaped on the processor.
type PricingModel string

const (
	PricingModelStandardSubscription PricingModel = "STANDARD_SUBSCRIPTION"
	PricingModelMeteredBilling       PricingModel = "METERED_BILLING"
	PricingModelPrepaidCredits       PricingModel = "PREPAID_CREDITS"
)

var pricingModels = []PricingModel{
	PricingModelStandardSubscription,
	PricingModelMeteredBilling,
	PricingModelPrepaidCredits,
}

func (p PricingModel) String() string { return string(p) }

func (p PricingModel) IsValid() bool { return slices.Contains(pricingModels, p) }

// IsRecurring reports whether prices of this model bill on an interval.
func (p PricingModel) IsRecurring() bool {
	return p != PricingModelPrepaidCredits
}

// ParsePricingModel is case sensitive; the admin UI sends the stored form.
func ParsePricingModel(value string) (PricingModel, error) {
	return parse[PricingModel]("pricing model", value, pricingModels, nil)
}
