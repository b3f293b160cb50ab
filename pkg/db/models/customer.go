package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// Customer mirrors a processor customer.
type Customer struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripeCustomerID string         `gorm:"column:stripe_customer_id;not null;unique" json:"stripe_customer_id"`
	Email            string         `gorm:"column:email;not null" json:"email"`
	Name             *string        `gorm:"column:name" json:"name"`
	Metadata         types.Metadata `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Subscriptions    []Subscription `gorm:"foreignKey:CustomerID" json:"subscriptions,omitempty"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
