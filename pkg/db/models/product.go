package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hydrus-backend/pkg/enums"
)

// Product mirrors a processor product created from the admin catalog.
type Product struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripeProductID string             `gorm:"column:stripe_product_id;not null;unique" json:"stripe_product_id"`
	Name            string             `gorm:"column:name;not null" json:"name"`
	Description     *string            `gorm:"column:description" json:"description"`
	PricingModel    enums.PricingModel `gorm:"column:pricing_model;not null" json:"pricing_model"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Prices          []Price            `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"prices,omitempty"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
