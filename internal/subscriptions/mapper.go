package subscriptions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// Snapshot is the processor's view of a subscription as carried by a webhook event.
// Period bounds are epoch seconds. Nil pointers and a nil Metadata map mean the
// payload omitted the field; Status is empty when the event does not carry one
// the synchronizer reads.
type Snapshot struct {
	StripeID         string
	StripeCustomerID string
	Status           enums.SubscriptionStatus
	PeriodStart      *int64
	PeriodEnd        *int64
	StripePriceID    string
	Quantity         *int64
	Metadata         map[string]string
}

// References are the local rows a new subscription points at.
type References struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	PriceID    uuid.UUID
}

// BuildFromSnapshot maps a processor snapshot into a new local subscription.
func BuildFromSnapshot(snap Snapshot, refs References) *models.Subscription {
	return &models.Subscription{
		CustomerID:           refs.CustomerID,
		ProductID:            refs.ProductID,
		PriceID:              refs.PriceID,
		StripeSubscriptionID: snap.StripeID,
		Status:               snap.Status,
		CurrentPeriodStart:   EpochToTime(valueOf(snap.PeriodStart)),
		CurrentPeriodEnd:     EpochToTime(valueOf(snap.PeriodEnd)),
		Quantity:             QuantityOrDefault(valueOf(snap.Quantity)),
		Metadata:             types.Metadata(snap.Metadata).Clone(),
	}
}

// SnapshotChanges returns the column updates a subscription.updated event applies.
// Fields the payload omitted keep their stored values.
func SnapshotChanges(snap Snapshot) map[string]any {
	changes := make(map[string]any, 5)
	if snap.Status != "" {
		changes["status"] = snap.Status
	}
	if snap.PeriodStart != nil {
		changes["current_period_start"] = EpochToTime(*snap.PeriodStart)
	}
	if snap.PeriodEnd != nil {
		changes["current_period_end"] = EpochToTime(*snap.PeriodEnd)
	}
	if snap.Quantity != nil {
		changes["quantity"] = QuantityOrDefault(*snap.Quantity)
	}
	if snap.Metadata != nil {
		changes["metadata"] = types.Metadata(snap.Metadata).Clone()
	}
	return changes
}

// ParseProcessorStatus maps the processor's lowercase status onto the stored enum.
func ParseProcessorStatus(raw string) (enums.SubscriptionStatus, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")
	status, err := enums.ParseSubscriptionStatus(normalized)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeMalformedPayload, err, "unknown subscription status")
	}
	return status, nil
}

// EpochToTime converts epoch seconds to a UTC instant.
func EpochToTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// QuantityOrDefault treats a missing quantity as 1.
func QuantityOrDefault(q int64) int {
	if q < 1 {
		return 1
	}
	return int(q)
}

func valueOf(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
