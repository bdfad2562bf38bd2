package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogPost backs the storefront's content pages, managed in the back office.
type BlogPost struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuthorID    uuid.UUID  `gorm:"column:author_id;type:uuid;not null"`
	Title       string     `gorm:"column:title;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Body        string     `gorm:"column:body;not null"`
	Excerpt     *string    `gorm:"column:excerpt"`
	Published   bool       `gorm:"column:published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
