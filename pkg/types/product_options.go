package types

import (
	"encoding/json"
	"fmt"

	"github.com/carnimore/storefront-backend/pkg/enums"
)

// CarnimoreOptions configures a custom rifle build.
type CarnimoreOptions struct {
	Caliber       string `json:"caliber"`
	LongAction    bool   `json:"long_action"`
	DeluxeVersion bool   `json:"deluxe_version"`
}

// DuracoatOptions configures a coating service line.
type DuracoatOptions struct {
	ColorCount int  `json:"color_count"`
	IsDirty    bool `json:"is_dirty"`
}

// MerchOptions configures apparel lines.
type MerchOptions struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// AccessoryOptions carries no selectable options today.
type AccessoryOptions struct{}

// ProductOptions is a tagged union keyed by the product's kind, so option
// legality is enforced by the type rather than by convention.
type ProductOptions struct {
	Kind      enums.ProductKind `json:"kind"`
	Carnimore *CarnimoreOptions `json:"carnimore,omitempty"`
	Duracoat  *DuracoatOptions  `json:"duracoat,omitempty"`
	Merch     *MerchOptions     `json:"merch,omitempty"`
	Accessory *AccessoryOptions `json:"accessory,omitempty"`
}

// Validate ensures exactly the member matching Kind is populated.
func (p ProductOptions) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("invalid product option kind %q", p.Kind)
	}

	populated := 0
	if p.Carnimore != nil {
		populated++
	}
	if p.Duracoat != nil {
		populated++
	}
	if p.Merch != nil {
		populated++
	}
	if p.Accessory != nil {
		populated++
	}
	if populated > 1 {
		return fmt.Errorf("product options must populate a single variant, got %d", populated)
	}

	switch p.Kind {
	case enums.ProductKindCarnimore:
		if p.Carnimore == nil {
			return fmt.Errorf("carnimore options required for kind %q", p.Kind)
		}
		if p.Carnimore.Caliber == "" {
			return fmt.Errorf("caliber is required for carnimore options")
		}
	case enums.ProductKindDuracoat:
		if p.Duracoat == nil {
			return fmt.Errorf("duracoat options required for kind %q", p.Kind)
		}
		if p.Duracoat.ColorCount < 1 {
			return fmt.Errorf("duracoat color count must be at least 1")
		}
	case enums.ProductKindMerch:
		if p.Merch == nil {
			return fmt.Errorf("merch options required for kind %q", p.Kind)
		}
		if p.Merch.Size == "" {
			return fmt.Errorf("size is required for merch options")
		}
	case enums.ProductKindAccessory:
		// accessories carry no options; a populated Accessory member is fine
	}
	return nil
}

// Scan and Value are provided by gorm's json serializer; MarshalJSON keeps
// the wire form stable for the storefront client.
func (p ProductOptions) MarshalJSON() ([]byte, error) {
	type alias ProductOptions
	return json.Marshal(alias(p))
}

func (p *ProductOptions) UnmarshalJSON(data []byte) error {
	type alias ProductOptions
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = ProductOptions(decoded)
	return nil
}
