package stripewebhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
)

func stripeEvent(id, eventType string, object string) *stripe.Event {
	return &stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func TestParseEventSubscriptionWithExpandedCustomer(t *testing.T) {
	evt := stripeEvent("evt_1", TypeSubscriptionUpdated, `{
		"id": "sub_1",
		"customer": {"id": "cus_9", "object": "customer"},
		"status": "past_due",
		"current_period_start": 1700000000,
		"current_period_end": 1702592000,
		"items": {"data": [{"price": {"id": "price_9"}, "quantity": 3}]}
	}`)

	parsed, err := ParseEvent(evt, []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	updated, ok := parsed.(SubscriptionUpdated)
	require.True(t, ok, "expected SubscriptionUpdated, got %T", parsed)
	assert.Equal(t, "cus_9", updated.Subscription.StripeCustomerID)
	assert.Equal(t, "price_9", updated.Subscription.StripePriceID)
	require.NotNil(t, updated.Subscription.Quantity)
	assert.Equal(t, int64(3), *updated.Subscription.Quantity)
	assert.Equal(t, enums.SubscriptionStatusPastDue, updated.Subscription.Status)
	assert.Equal(t, "evt_1", updated.Meta().ID)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(updated.Meta().Payload))
}

func TestParseEventSubscriptionPeriodFromItems(t *testing.T) {
	evt := stripeEvent("evt_2", TypeSubscriptionCreated, `{
		"id": "sub_2",
		"customer": "cus_2",
		"status": "active",
		"items": {"data": [{"price": "price_2", "current_period_start": 1700000000, "current_period_end": 1702592000}]}
	}`)

	parsed, err := ParseEvent(evt, nil)
	require.NoError(t, err)
	created := parsed.(SubscriptionCreated)
	require.NotNil(t, created.Subscription.PeriodStart)
	require.NotNil(t, created.Subscription.PeriodEnd)
	assert.Equal(t, int64(1700000000), *created.Subscription.PeriodStart)
	assert.Equal(t, int64(1702592000), *created.Subscription.PeriodEnd)
	assert.Equal(t, "price_2", created.Subscription.StripePriceID)
	assert.Nil(t, created.Subscription.Quantity)
}

func TestParseEventSubscriptionTracksOmittedFields(t *testing.T) {
	parsed, err := ParseEvent(stripeEvent("evt_15", TypeSubscriptionUpdated, `{"id":"sub_u","status":"active"}`), nil)
	require.NoError(t, err)
	snap := parsed.(SubscriptionUpdated).Subscription
	assert.Nil(t, snap.PeriodStart)
	assert.Nil(t, snap.PeriodEnd)
	assert.Nil(t, snap.Quantity)
	assert.Nil(t, snap.Metadata)
	assert.Empty(t, snap.StripePriceID)

	parsed, err = ParseEvent(stripeEvent("evt_16", TypeSubscriptionUpdated, `{"id":"sub_u","status":"active","metadata":{}}`), nil)
	require.NoError(t, err)
	meta := parsed.(SubscriptionUpdated).Subscription.Metadata
	assert.NotNil(t, meta)
	assert.Empty(t, meta)
}

func TestParseEventDeletedIgnoresStatus(t *testing.T) {
	parsed, err := ParseEvent(stripeEvent("evt_17", TypeSubscriptionDeleted, `{"id":"sub_d","status":"archived_future"}`), nil)
	require.NoError(t, err)
	deleted, ok := parsed.(SubscriptionDeleted)
	require.True(t, ok, "expected SubscriptionDeleted, got %T", parsed)
	assert.Equal(t, "sub_d", deleted.Subscription.StripeID)
	assert.Empty(t, deleted.Subscription.Status)
}

func TestParseEventInvoiceSubscriptionRefs(t *testing.T) {
	legacy, err := ParseEvent(stripeEvent("evt_3", TypeInvoicePaymentFailed, `{"id":"in_1","subscription":"sub_legacy","amount_due":500,"attempt_count":2}`), nil)
	require.NoError(t, err)
	failed := legacy.(InvoicePaymentFailed)
	assert.Equal(t, "sub_legacy", failed.Invoice.StripeSubscriptionID)
	assert.Equal(t, int64(500), failed.Invoice.AmountDue)
	assert.Equal(t, int64(2), failed.Invoice.AttemptCount)

	modern, err := ParseEvent(stripeEvent("evt_4", TypeInvoicePaymentSucceeded, `{"id":"in_2","parent":{"subscription_details":{"subscription":{"id":"sub_new"}}}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "sub_new", modern.(InvoicePaymentSucceeded).Invoice.StripeSubscriptionID)

	none, err := ParseEvent(stripeEvent("evt_5", TypeInvoicePaymentSucceeded, `{"id":"in_3","parent":null}`), nil)
	require.NoError(t, err)
	assert.Empty(t, none.(InvoicePaymentSucceeded).Invoice.StripeSubscriptionID)
}

func TestParseEventCustomerWithNullEmail(t *testing.T) {
	parsed, err := ParseEvent(stripeEvent("evt_6", TypeCustomerCreated, `{"id":"cus_1","email":null,"name":null}`), nil)
	require.NoError(t, err)
	created := parsed.(CustomerCreated)
	assert.Empty(t, created.Customer.Email)
	assert.Nil(t, created.Customer.Name)
}

func TestParseEventUnknownType(t *testing.T) {
	parsed, err := ParseEvent(stripeEvent("evt_7", "payout.paid", `{"id":"po_1"}`), nil)
	require.NoError(t, err)
	_, ok := parsed.(UnknownEvent)
	assert.True(t, ok)
}

func TestParseEventMalformedObjects(t *testing.T) {
	cases := map[string]*stripe.Event{
		"missing id":       stripeEvent("", TypeCustomerCreated, `{"id":"cus_1"}`),
		"missing object":   stripeEvent("evt_8", TypeSubscriptionCreated, ``),
		"wrong shape":      stripeEvent("evt_9", TypeSubscriptionCreated, `{"id": 12}`),
		"no subscription":  stripeEvent("evt_10", TypeSubscriptionDeleted, `{"status":"active"}`),
		"unknown status":   stripeEvent("evt_11", TypeSubscriptionCreated, `{"id":"sub_1","status":"frozen"}`),
		"unknown update":   stripeEvent("evt_18", TypeSubscriptionUpdated, `{"id":"sub_1","status":"frozen"}`),
		"invoice no id":    stripeEvent("evt_12", TypeInvoicePaymentFailed, `{"subscription":"sub_1"}`),
		"customer no id":   stripeEvent("evt_13", TypeCustomerCreated, `{"email":"a@b.c"}`),
		"bad customer ref": stripeEvent("evt_14", TypeSubscriptionCreated, `{"id":"sub_1","status":"active","customer":42}`),
	}
	for name, evt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent(evt, nil)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMalformedPayload), "got %v", err)
		})
	}
}
