package ffl

import (
	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/pagination"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// DealerDTO is the public dealer search result.
type DealerDTO struct {
	ID     uuid.UUID           `json:"id"`
	Dealer types.FFLDealerInfo `json:"dealer"`
}

// SearchInput filters the dealer directory. Zip is required and must be five
// digits; Name narrows by business or license name fragment.
type SearchInput struct {
	Zip        string
	Name       string
	Pagination pagination.Params
}

// DealerList is one page of dealers with a continuation cursor.
type DealerList struct {
	Dealers    []DealerDTO `json:"dealers"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}

// ImportInput is one dealer row for the admin directory import.
type ImportInput struct {
	Dealer types.FFLDealerInfo
}

// ImportResult summarizes an import batch.
type ImportResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
}
