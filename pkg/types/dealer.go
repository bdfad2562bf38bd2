package types

import "strings"

// FFLDealerInfo snapshots the dealer selected during checkout. Immutable for
// the rest of the session once attached.
type FFLDealerInfo struct {
	LicenseNumber   string  `json:"license_number"`
	BusinessName    string  `json:"business_name"`
	LicenseName     string  `json:"license_name"`
	PremiseStreet   string  `json:"premise_street"`
	PremiseCity     string  `json:"premise_city"`
	PremiseState    string  `json:"premise_state"`
	PremiseZip      string  `json:"premise_zip"`
	MailingStreet   *string `json:"mailing_street,omitempty"`
	MailingCity     *string `json:"mailing_city,omitempty"`
	MailingState    *string `json:"mailing_state,omitempty"`
	MailingZip      *string `json:"mailing_zip,omitempty"`
	Phone           string  `json:"phone"`
	LicenseSequence string  `json:"license_sequence"`
}

// Complete reports whether the snapshot identifies a usable dealer.
func (f FFLDealerInfo) Complete() bool {
	return strings.TrimSpace(f.LicenseNumber) != "" &&
		strings.TrimSpace(f.BusinessName) != ""
}
