package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/types"
)

// OrderLineItem snapshots a cart line at submission time.
type OrderLineItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Name           string                `gorm:"column:name;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	UnitPriceCents int                   `gorm:"column:unit_price_cents;not null"`
	TotalCents     int                   `gorm:"column:total_cents;not null"`
	Options        *types.ProductOptions `gorm:"column:options;type:jsonb;serializer:json"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
