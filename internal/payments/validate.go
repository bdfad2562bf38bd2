package payments

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
)

var (
	cardRe = regexp.MustCompile(`^\d{15,16}$`)
	cvvRe  = regexp.MustCompile(`^\d{3,4}$`)
)

// validate runs the submission checks in a fixed order, failing on the first
// violation. Every failure is a validation error with a human-readable
// message. The transfer predicates are re-derived from the cart rather than
// trusted from the checkout session.
func (s *service) validate(input PaymentInput, requiresFFL, hasNonFFLItems bool, now time.Time) error {
	if err := validatePresence(input); err != nil {
		return err
	}
	if input.BillingAddress == nil || !input.BillingAddress.Complete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "billing address is required")
	}
	if requiresFFL {
		if input.FFLDealer == nil || !input.FFLDealer.Complete() {
			return pkgerrors.New(pkgerrors.CodeValidation, "an FFL dealer is required for this order")
		}
	}
	if hasNonFFLItems {
		if input.ShippingAddress == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "a shipping address is required for this order")
		}
		if err := input.ShippingAddress.Validate(); err != nil {
			return err
		}
	}

	card := stripSpaces(input.CardNumber)
	if !cardRe.MatchString(card) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number must be 15 or 16 digits")
	}
	if err := validateExpiry(input.ExpiryMonth, input.ExpiryYear, now); err != nil {
		return err
	}
	if !cvvRe.MatchString(strings.TrimSpace(input.CVV)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "security code must be 3 or 4 digits")
	}
	return nil
}

func validatePresence(input PaymentInput) error {
	checks := []struct {
		missing bool
		message string
	}{
		{strings.TrimSpace(input.CardNumber) == "", "card number is required"},
		{strings.TrimSpace(input.ExpiryMonth) == "", "expiration month is required"},
		{strings.TrimSpace(input.ExpiryYear) == "", "expiration year is required"},
		{strings.TrimSpace(input.CVV) == "", "security code is required"},
		{strings.TrimSpace(input.NameOnCard) == "", "name on card is required"},
		{strings.TrimSpace(input.SourceID) == "", "payment token is required"},
		{input.OrderID == uuid.Nil, "order id is required"},
		{!input.Amount.IsPositive(), "a positive amount is required"},
		{strings.TrimSpace(input.Email) == "", "email is required"},
		{strings.TrimSpace(input.Phone) == "", "phone is required"},
	}
	for _, check := range checks {
		if check.missing {
			return pkgerrors.New(pkgerrors.CodeValidation, check.message)
		}
	}
	return nil
}

// validateExpiry rejects expirations strictly before the current month.
func validateExpiry(month, year string, now time.Time) error {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiration month is invalid")
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiration year is invalid")
	}
	if y < 100 {
		y += 2000
	}
	if y < now.Year() || (y == now.Year() && m < int(now.Month())) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card is expired")
	}
	return nil
}

// normalize cleans the validated payload for submission.
func normalize(input PaymentInput) normalized {
	month, _ := strconv.Atoi(strings.TrimSpace(input.ExpiryMonth))
	amount := input.Amount.Round(2)
	return normalized{
		CardNumber:  stripSpaces(input.CardNumber),
		ExpiryMonth: fmt.Sprintf("%02d", month),
		ExpiryYear:  strings.TrimSpace(input.ExpiryYear),
		Amount:      amount.StringFixed(2),
		AmountCents: amount.Mul(decimalHundred).IntPart(),
	}
}

func stripSpaces(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "")
}
