package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
)

// CartRecord is the server-side cart, mirrored to the browser session.
type CartRecord struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	SessionID  *string          `gorm:"column:session_id;index"`
	Status     enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	ClearedAt  *time.Time       `gorm:"column:cleared_at"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
