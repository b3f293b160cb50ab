// Package dunning hands payment-failure notices to the email collaborator.
package dunning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/payloads"
)

// Notice describes one failed invoice payment. SubscriptionID is uuid.Nil when
// the subscription is not mirrored locally yet.
type Notice struct {
	SubscriptionID       uuid.UUID
	StripeSubscriptionID string
	StripeInvoiceID      string
	StripeCustomerID     string
	CustomerEmail        string
	AmountDueMinor       int64
	Currency             string
	AttemptCount         int64

	// SourceEventID and SourceEventType name the processor event that caused the notice.
	SourceEventID   string
	SourceEventType string
}

// Notifier enqueues dunning notices in the caller's transaction, so a notice
// only becomes visible if the status change that caused it commits.
type Notifier struct {
	emitter outbox.Emitter
}

// NewNotifier builds a notifier on top of the outbox emitter.
func NewNotifier(emitter outbox.Emitter) (*Notifier, error) {
	if emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &Notifier{emitter: emitter}, nil
}

// PaymentFailed writes a dunning.payment_failed outbox row. The row is keyed on
// the local subscription when known and otherwise on an id derived from the
// processor subscription id, so notices for one subscription share an aggregate.
func (n *Notifier) PaymentFailed(ctx context.Context, tx *gorm.DB, notice Notice) error {
	if notice.StripeSubscriptionID == "" {
		return errors.New("stripe subscription id required")
	}
	var source *outbox.SourceRef
	if notice.SourceEventID != "" {
		source = &outbox.SourceRef{
			StripeEventID:   notice.SourceEventID,
			StripeEventType: notice.SourceEventType,
		}
	}
	var localID *uuid.UUID
	if notice.SubscriptionID != uuid.Nil {
		id := notice.SubscriptionID
		localID = &id
	}
	return n.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDunningPaymentFailed,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   aggregateID(notice),
		Source:        source,
		Data: payloads.DunningPaymentFailedEvent{
			SubscriptionID:       localID,
			StripeSubscriptionID: notice.StripeSubscriptionID,
			StripeInvoiceID:      notice.StripeInvoiceID,
			StripeCustomerID:     notice.StripeCustomerID,
			CustomerEmail:        notice.CustomerEmail,
			AmountDueMinor:       notice.AmountDueMinor,
			Currency:             notice.Currency,
			AttemptCount:         notice.AttemptCount,
		},
	})
}

var processorSubscriptionSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://api.stripe.com/v1/subscriptions"))

func aggregateID(notice Notice) uuid.UUID {
	if notice.SubscriptionID != uuid.Nil {
		return notice.SubscriptionID
	}
	return uuid.NewSHA1(processorSubscriptionSpace, []byte(notice.StripeSubscriptionID))
}
