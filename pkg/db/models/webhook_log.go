package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// WebhookLog is the audit and deduplication record for one processor event.
type WebhookLog struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID   string        `gorm:"column:event_id;not null;unique" json:"event_id"`
	EventType string        `gorm:"column:event_type;not null" json:"event_type"`
	Processed bool          `gorm:"column:processed;not null;default:false" json:"processed"`
	Payload   types.RawJSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
