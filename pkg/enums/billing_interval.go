package enums

import "slices"

// BillingInterval is the cadence of a recurring price.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "MONTHLY"
	BillingIntervalYearly  BillingInterval = "YEARLY"
)

var billingIntervals = []BillingInterval{BillingIntervalMonthly, BillingIntervalYearly}

var processorIntervals = map[BillingInterval]string{
	BillingIntervalMonthly: "month",
	BillingIntervalYearly:  "year",
}

func (b BillingInterval) String() string { return string(b) }

func (b BillingInterval) IsValid() bool { return slices.Contains(billingIntervals, b) }

// ProcessorInterval returns the recurring interval name the processor
// expects. Unset intervals bill monthly.
func (b BillingInterval) ProcessorInterval() string {
	if name, ok := processorIntervals[b]; ok {
		return name
	}
	return processorIntervals[BillingIntervalMonthly]
}

func ParseBillingInterval(value string) (BillingInterval, error) {
	return parse("billing interval", value, billingIntervals, upper)
}
