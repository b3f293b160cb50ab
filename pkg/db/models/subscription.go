package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// Subscription mirrors processor subscription state per customer.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID           uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	ProductID            uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	PriceID              uuid.UUID                `gorm:"column:price_id;type:uuid;not null;index" json:"price_id"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;unique" json:"stripe_subscription_id"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null" json:"status"`
	CurrentPeriodStart   time.Time                `gorm:"column:current_period_start;not null" json:"current_period_start"`
	CurrentPeriodEnd     time.Time                `gorm:"column:current_period_end;not null" json:"current_period_end"`
	Quantity             int                      `gorm:"column:quantity;not null;default:1" json:"quantity"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at" json:"canceled_at"`
	Metadata             types.Metadata           `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Product              *Product                 `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Price                *Price                   `gorm:"foreignKey:PriceID" json:"price,omitempty"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
