package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
	"github.com/google/uuid"
)

func TestEventRegistryResolveDunning(t *testing.T) {
	reg := newTestEventRegistry(t)

	subID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventDunningPaymentFailed,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   subID,
		Payload: mustEnvelope(t, payloads.DunningPaymentFailedEvent{
			SubscriptionID:       &subID,
			StripeSubscriptionID: "sub_123",
			StripeInvoiceID:      "in_123",
			AmountDueMinor:       2500,
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "dunning-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.DunningPaymentFailedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.StripeSubscriptionID != "sub_123" || payload.AmountDueMinor != 2500 {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope metadata missing: %+v", resolved.Envelope)
	}
}

func TestEventRegistryResolveRejections(t *testing.T) {
	reg := newTestEventRegistry(t)
	validPayload := mustEnvelope(t, payloads.DunningPaymentFailedEvent{StripeSubscriptionID: "sub_1"})

	cases := map[string]models.OutboxEvent{
		"unknown type": {
			EventType:     "billing.unknown",
			AggregateType: enums.AggregateSubscription,
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"aggregate mismatch": {
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"missing aggregate id": {
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateSubscription,
			Payload:       validPayload,
		},
		"broken envelope": {
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   uuid.New(),
			Payload:       types.RawJSON(`{"version":`),
		},
		"future version": {
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   uuid.New(),
			Payload:       types.RawJSON(`{"version":99,"event_id":"x","data":{}}`),
		},
		"null data": {
			EventType:     enums.EventDunningPaymentFailed,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   uuid.New(),
			Payload:       types.RawJSON(`{"version":1,"event_id":"x","data":null}`),
		},
	}

	for name, event := range cases {
		_, err := reg.Resolve(event)
		var nonRetry NonRetryableError
		if !errors.As(err, &nonRetry) {
			t.Fatalf("%s: expected non-retryable error, got %v", name, err)
		}
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected missing topic error")
	}
	reg := newTestEventRegistry(t)
	if topics := reg.Topics(); len(topics) != 1 || topics[0] != "dunning-topic" {
		t.Fatalf("unexpected topics %v", topics)
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{DunningTopic: "dunning-topic"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustEnvelope(t *testing.T, data any) types.RawJSON {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return types.RawJSON(env)
}
