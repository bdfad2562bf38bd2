package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/pagination"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// OrderLineItemDTO is a submitted cart line snapshot.
type OrderLineItemDTO struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      *uuid.UUID            `json:"product_id,omitempty"`
	Name           string                `json:"name"`
	Quantity       int                   `json:"quantity"`
	UnitPriceCents int                   `json:"unit_price_cents"`
	TotalCents     int                   `json:"total_cents"`
	Options        *types.ProductOptions `json:"options,omitempty"`
}

// OrderDTO is the full order view for owners and admins.
type OrderDTO struct {
	ID                uuid.UUID                `json:"id"`
	UserID            *uuid.UUID               `json:"user_id,omitempty"`
	CartID            *uuid.UUID               `json:"cart_id,omitempty"`
	Email             string                   `json:"email"`
	Phone             string                   `json:"phone"`
	PaymentStatus     enums.PaymentStatus      `json:"payment_status"`
	ResponseMessage   *string                  `json:"response_message,omitempty"`
	ProcessorResponse *types.ProcessorResponse `json:"payment_processor_response,omitempty"`
	TotalCents        int                      `json:"total_cents"`
	TotalAmount       decimal.Decimal          `json:"total_amount"`
	Contact           types.ContactInfo        `json:"contact"`
	BillingAddress    types.Address            `json:"billing_address"`
	ShippingAddress   *types.Address           `json:"shipping_address,omitempty"`
	FFLDealer         *types.FFLDealerInfo     `json:"ffl_dealer,omitempty"`
	Items             []OrderLineItemDTO       `json:"items"`
	ResolvedAt        *time.Time               `json:"resolved_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// StatusDTO is the polling view of an order. Pending is returned even when the
// order row is not yet visible, so clients never see a hard not-found mid
// settlement.
type StatusDTO struct {
	OrderID           uuid.UUID                `json:"order_id"`
	PaymentStatus     enums.PaymentStatus      `json:"payment_status"`
	ResponseMessage   *string                  `json:"response_message,omitempty"`
	ProcessorResponse *types.ProcessorResponse `json:"payment_processor_response,omitempty"`
	TotalAmount       decimal.Decimal          `json:"total_amount"`
}

// CreateOrderInput carries the pending order created at payment submission.
// The ID is minted by the client before submission.
type CreateOrderInput struct {
	ID              uuid.UUID
	UserID          *uuid.UUID
	CartID          *uuid.UUID
	Email           string
	Phone           string
	TotalCents      int
	Contact         types.ContactInfo
	BillingAddress  types.Address
	ShippingAddress *types.Address
	FFLDealer       *types.FFLDealerInfo
	Items           []OrderLineItemDTO
}

// ListOrdersInput filters the admin order listing.
type ListOrdersInput struct {
	Status     *enums.PaymentStatus
	UserID     *uuid.UUID
	Pagination pagination.Params
}

// OrderList is one page of orders with a continuation cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}
