package enums

import "fmt"

// CheckoutStep identifies one stage of the checkout wizard.
type CheckoutStep string

const (
	CheckoutStepContact  CheckoutStep = "contact"
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepFFL      CheckoutStep = "ffl"
	CheckoutStepPayment  CheckoutStep = "payment"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepContact,
	CheckoutStepShipping,
	CheckoutStepFFL,
	CheckoutStepPayment,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
