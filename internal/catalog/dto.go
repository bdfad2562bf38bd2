package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/pagination"
)

// CategoryDTO is the public category shape returned by the API.
type CategoryDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Kind        enums.ProductKind `json:"kind"`
	FFLRequired bool              `json:"ffl_required"`
	Description *string           `json:"description,omitempty"`
	Position    int               `json:"position"`
}

// ProductDTO is the public product shape returned by the API.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	CategoryID  uuid.UUID    `json:"category_id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description *string      `json:"description,omitempty"`
	PriceCents  int          `json:"price_cents"`
	ImageURL    *string      `json:"image_url,omitempty"`
	IsActive    bool         `json:"is_active"`
	IsFeatured  bool         `json:"is_featured"`
	Category    *CategoryDTO `json:"category,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CategorySlug  string             `json:"category,omitempty"`
	Kind          *enums.ProductKind `json:"kind,omitempty"`
	Featured      *bool              `json:"featured,omitempty"`
	PriceMinCents *int               `json:"price_min_cents,omitempty"`
	PriceMaxCents *int               `json:"price_max_cents,omitempty"`
	Query         string             `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters        ProductListFilters
	Pagination     pagination.Params
	IncludeHidden  bool
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name        string
	Slug        string
	Kind        enums.ProductKind
	FFLRequired bool
	Description *string
	Position    int
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	CategoryID  uuid.UUID
	Name        string
	Slug        string
	Description *string
	PriceCents  int
	ImageURL    *string
	IsActive    bool
	IsFeatured  bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID
	Name        *string
	Slug        *string
	Description *string
	PriceCents  *int
	ImageURL    *string
	IsActive    *bool
	IsFeatured  *bool
}

// CategoryFlags carries the checkout-relevant flags for one category.
type CategoryFlags struct {
	FFLRequired bool
}
