package types

import (
	"regexp"
	"strings"

	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
)

var (
	stateRe = regexp.MustCompile(`^[A-Z]{2}$`)
	zipRe   = regexp.MustCompile(`^\d{5}$`)
)

// Address is a US street address stored as jsonb on carts and orders.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Complete reports whether every field is present.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.Zip) != ""
}

// Validate checks presence and format. State must be a two-letter
// uppercase code and zip a five-digit string.
func (a Address) Validate() error {
	if !a.Complete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "address requires street, city, state and zip")
	}
	if !stateRe.MatchString(a.State) {
		return pkgerrors.New(pkgerrors.CodeValidation, "state must be a two-letter code")
	}
	if !zipRe.MatchString(a.Zip) {
		return pkgerrors.New(pkgerrors.CodeValidation, "zip must be five digits")
	}
	return nil
}

// Normalize trims whitespace and uppercases the state code.
func (a Address) Normalize() Address {
	return Address{
		Street: strings.TrimSpace(a.Street),
		City:   strings.TrimSpace(a.City),
		State:  strings.ToUpper(strings.TrimSpace(a.State)),
		Zip:    strings.TrimSpace(a.Zip),
	}
}
