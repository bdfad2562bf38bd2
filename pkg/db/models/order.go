package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// Order is keyed by the client-minted UUID supplied at payment submission.
// The storefront never mutates it directly; resolution happens via polling.
type Order struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID            *uuid.UUID               `gorm:"column:user_id;type:uuid;index"`
	CartID            *uuid.UUID               `gorm:"column:cart_id;type:uuid"`
	Email             string                   `gorm:"column:email;not null"`
	Phone             string                   `gorm:"column:phone;not null"`
	PaymentStatus     enums.PaymentStatus      `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ResponseMessage   *string                  `gorm:"column:response_message"`
	ProcessorResponse *types.ProcessorResponse `gorm:"column:payment_processor_response;type:jsonb;serializer:json"`
	TotalCents        int                      `gorm:"column:total_cents;not null"`
	Contact           types.ContactInfo        `gorm:"column:contact;type:jsonb;serializer:json"`
	BillingAddress    types.Address            `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress   *types.Address           `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	FFLDealer         *types.FFLDealerInfo     `gorm:"column:ffl_dealer;type:jsonb;serializer:json"`
	Items             []OrderLineItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ResolvedAt        *time.Time               `gorm:"column:resolved_at"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
