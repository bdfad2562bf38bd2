package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a storefront listing.
type Product struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID  `gorm:"column:category_id;type:uuid;not null"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Description *string    `gorm:"column:description"`
	PriceCents  int        `gorm:"column:price_cents;not null"`
	ImageURL    *string    `gorm:"column:image_url"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	IsFeatured  bool       `gorm:"column:is_featured;not null;default:false"`
	Category    *Category  `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index"`
}
