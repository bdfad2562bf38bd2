package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/types"
)

// CartItem persists one line of a cart. Position preserves insertion order so
// quantity updates never reshuffle the cart.
type CartItem struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID            `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	CategoryID uuid.UUID            `gorm:"column:category_id;type:uuid;not null"`
	Name       string               `gorm:"column:name;not null"`
	PriceCents int                  `gorm:"column:price_cents;not null"`
	Quantity   int                  `gorm:"column:quantity;not null"`
	ImageURL   *string              `gorm:"column:image_url"`
	Options    *types.ProductOptions `gorm:"column:options;type:jsonb;serializer:json"`
	Position   int                  `gorm:"column:position;not null"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
