package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
)

// Category groups products and carries the FFL transfer flag the checkout
// flow keys off.
type Category struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Slug        string            `gorm:"column:slug;not null;uniqueIndex"`
	Kind        enums.ProductKind `gorm:"column:kind;type:text;not null"`
	FFLRequired bool              `gorm:"column:ffl_required;not null;default:false"`
	Description *string           `gorm:"column:description"`
	Position    int               `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
