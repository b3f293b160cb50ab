package dunning

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/payloads"
)

func TestPaymentFailedWritesOutboxRow(t *testing.T) {
	client := dbtest.Client(t)
	notifier, err := NewNotifier(outbox.NewService(outbox.NewRepository(client.DB()), nil))
	require.NoError(t, err)

	subID := uuid.New()
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return notifier.PaymentFailed(context.Background(), tx, Notice{
			SubscriptionID:       subID,
			StripeSubscriptionID: "sub_1",
			StripeInvoiceID:      "in_1",
			CustomerEmail:        "ada@example.com",
			AmountDueMinor:       1999,
			Currency:             "usd",
			AttemptCount:         2,
			SourceEventID:        "evt_1",
			SourceEventType:      "invoice.payment_failed",
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, client.DB().First(&row).Error)
	require.Equal(t, enums.EventDunningPaymentFailed, row.EventType)
	require.Equal(t, enums.AggregateSubscription, row.AggregateType)
	require.Equal(t, subID, row.AggregateID)

	envelope, err := outbox.DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	require.Equal(t, outbox.EnvelopeVersion, envelope.Version)
	require.Equal(t, "evt_1", envelope.Source.StripeEventID)
	var data payloads.DunningPaymentFailedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, int64(1999), data.AmountDueMinor)
	require.Equal(t, "in_1", data.StripeInvoiceID)
	require.NotNil(t, data.SubscriptionID)
	require.Equal(t, subID, *data.SubscriptionID)
}

func TestPaymentFailedRequiresProcessorSubscription(t *testing.T) {
	client := dbtest.Client(t)
	notifier, err := NewNotifier(outbox.NewService(outbox.NewRepository(client.DB()), nil))
	require.NoError(t, err)

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return notifier.PaymentFailed(context.Background(), tx, Notice{SubscriptionID: uuid.New()})
	})
	require.Error(t, err)
}

func TestPaymentFailedForUnmirroredSubscription(t *testing.T) {
	client := dbtest.Client(t)
	notifier, err := NewNotifier(outbox.NewService(outbox.NewRepository(client.DB()), nil))
	require.NoError(t, err)

	emit := func(invoice string) {
		err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
			return notifier.PaymentFailed(context.Background(), tx, Notice{
				StripeSubscriptionID: "sub_123",
				StripeInvoiceID:      invoice,
			})
		})
		require.NoError(t, err)
	}
	emit("in_1")
	emit("in_2")

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Order("created_at ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	require.NotEqual(t, uuid.Nil, rows[0].AggregateID)
	require.Equal(t, rows[0].AggregateID, rows[1].AggregateID)

	envelope, err := outbox.DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	var data payloads.DunningPaymentFailedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Nil(t, data.SubscriptionID)
	require.Equal(t, "sub_123", data.StripeSubscriptionID)
}

func TestNewNotifierRequiresEmitter(t *testing.T) {
	_, err := NewNotifier(nil)
	require.Error(t, err)
}
