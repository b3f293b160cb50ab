package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is written on every new row. Consumers reject anything newer.
const EnvelopeVersion = 1

var errEmptyData = errors.New("envelope has no data")

// SourceRef names the processor event that caused an outbox row.
type SourceRef struct {
	StripeEventID   string `json:"stripe_event_id"`
	StripeEventType string `json:"stripe_event_type"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and published
// unchanged. EventID is the consumer's dedup key.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Source     *SourceRef      `json:"source,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(data any, source *SourceRef, occurredAt time.Time) ([]byte, string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("encode event data: %w", err)
	}
	if isEmptyJSON(raw) {
		return nil, "", errEmptyData
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	env := PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: occurredAt.UTC(),
		Source:     source,
		Data:       raw,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("encode envelope: %w", err)
	}
	return out, env.EventID, nil
}

// DecodeEnvelope parses a stored payload and rejects versions this build
// does not understand.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version < 1 || env.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if isEmptyJSON(env.Data) {
		return PayloadEnvelope{}, errEmptyData
	}
	return env, nil
}

func isEmptyJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
