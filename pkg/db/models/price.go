package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/enums"
)

// Price is a processor price attached to a Product. Amounts are minor units.
type Price struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	StripePriceID   string                `gorm:"column:stripe_price_id;not null;unique" json:"stripe_price_id"`
	AmountCents     int64                 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency        enums.Currency        `gorm:"column:currency;not null" json:"currency"`
	BillingInterval enums.BillingInterval `gorm:"column:billing_interval;not null" json:"billing_interval"`
	IntervalCount   int                   `gorm:"column:interval_count;not null;default:1" json:"interval_count"`
	TrialDays       *int                  `gorm:"column:trial_days" json:"trial_days"`
	TrialType       *enums.TrialType      `gorm:"column:trial_type" json:"trial_type"`
	IsActive        bool                  `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
