package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// CartItemDTO is the public shape of one cart line.
type CartItemDTO struct {
	ID         uuid.UUID             `json:"id"`
	ProductID  uuid.UUID             `json:"product_id"`
	CategoryID uuid.UUID             `json:"category_id"`
	Name       string                `json:"name"`
	PriceCents int                   `json:"price_cents"`
	Quantity   int                   `json:"quantity"`
	ImageURL   *string               `json:"image_url,omitempty"`
	Options    *types.ProductOptions `json:"options,omitempty"`
	Position   int                   `json:"position"`
}

// CartDTO is the public cart shape returned by the API.
type CartDTO struct {
	ID            uuid.UUID        `json:"id"`
	Status        enums.CartStatus `json:"status"`
	Items         []CartItemDTO    `json:"items"`
	SubtotalCents int              `json:"subtotal_cents"`
	ItemCount     int              `json:"item_count"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CreateCartInput identifies the owner of a new cart.
type CreateCartInput struct {
	UserID    *uuid.UUID
	SessionID *string
}

// AddItemInput captures the payload required to add a line to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Options   *types.ProductOptions
}

// FFLAssessment is the result of the cart's transfer predicates. Lookup
// failures degrade the affected items to "not FFL-required" and are carried
// on Warnings instead of failing the call.
type FFLAssessment struct {
	RequiresFFL    bool
	HasNonFFLItems bool
	Warnings       error
}
