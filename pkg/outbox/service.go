package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Source        *SourceRef
	Data          any
	// OccurredAt defaults to now.
	OccurredAt time.Time
}

// Emitter writes domain events inside a caller-owned transaction, so an event
// exists only if the state change behind it commits.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

var _ Emitter = (*Service)(nil)

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("outbox emit requires a transaction")
	}
	if !event.EventType.IsValid() || !event.AggregateType.IsValid() || event.AggregateID == uuid.Nil {
		return fmt.Errorf("outbox event incomplete: type=%q aggregate=%q id=%s", event.EventType, event.AggregateType, event.AggregateID)
	}
	payload, eventID, err := newEnvelope(event.Data, event.Source, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("outbox %s: %w", event.EventType, err)
	}
	if err := s.repo.Insert(tx, models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       types.RawJSON(payload),
	}); err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"outbox_event_id": eventID,
			"outbox_type":     event.EventType,
			"aggregate_id":    event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}
