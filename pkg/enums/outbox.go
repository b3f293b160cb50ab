package enums

import "slices"

// OutboxAggregateType names the record an outbox event is about.
type OutboxAggregateType string

const (
	AggregateSubscription OutboxAggregateType = "subscription"
	AggregateCustomer     OutboxAggregateType = "customer"
)

var aggregateTypes = []OutboxAggregateType{AggregateSubscription, AggregateCustomer}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", value, aggregateTypes, lower)
}

// OutboxEventType names the downstream notification being requested. Each
// value is routed to a topic by the publisher registry.
type OutboxEventType string

const (
	EventDunningPaymentFailed OutboxEventType = "dunning.payment_failed"
)

var outboxEventTypes = []OutboxEventType{EventDunningPaymentFailed}

func (e OutboxEventType) IsValid() bool { return slices.Contains(outboxEventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, outboxEventTypes, lower)
}
