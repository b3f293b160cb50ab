package main

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox/registry"
)

// sink delivers one message to a topic and waits for the server ack.
type sink interface {
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)
}

type publisherSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubSink resolves publishers lazily; a topic the client was not set up
// for is a permanent failure.
type pubsubSink struct {
	client publisherSource
}

func (s pubsubSink) Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	pub := s.client.Publisher(topic)
	if pub == nil {
		return "", registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}
	return pub.Publish(ctx, msg).Get(ctx)
}

// buildMessage publishes the stored envelope verbatim; attributes let
// subscribers filter without decoding it.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
