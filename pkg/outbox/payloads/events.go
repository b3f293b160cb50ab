package payloads

import "github.com/google/uuid"

// DunningPaymentFailedEvent asks the email collaborator to send a payment
// failure notice for a processor subscription. SubscriptionID is set once the
// subscription is mirrored locally.
type DunningPaymentFailedEvent struct {
	SubscriptionID       *uuid.UUID `json:"subscription_id,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	StripeInvoiceID      string     `json:"stripe_invoice_id"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	CustomerEmail        string     `json:"customer_email,omitempty"`
	AmountDueMinor       int64      `json:"amount_due_minor"`
	Currency             string     `json:"currency,omitempty"`
	AttemptCount         int64      `json:"attempt_count"`
}
