package enums

import "slices"

// SubscriptionStatus mirrors the processor's subscription state, uppercased.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue           SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled          SubscriptionStatus = "CANCELED"
	SubscriptionStatusTrialing          SubscriptionStatus = "TRIALING"
	SubscriptionStatusIncomplete        SubscriptionStatus = "INCOMPLETE"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "INCOMPLETE_EXPIRED"
	SubscriptionStatusUnpaid            SubscriptionStatus = "UNPAID"
	SubscriptionStatusPaused            SubscriptionStatus = "PAUSED"
)

var subscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusPastDue,
	SubscriptionStatusCanceled,
	SubscriptionStatusTrialing,
	SubscriptionStatusIncomplete,
	SubscriptionStatusIncompleteExpired,
	SubscriptionStatusUnpaid,
	SubscriptionStatusPaused,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool { return slices.Contains(subscriptionStatuses, s) }

// ParseSubscriptionStatus accepts either the processor's lowercase vocabulary
// ("past_due") or the stored uppercase form ("PAST_DUE").
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	return parse("subscription status", value, subscriptionStatuses, upper)
}
