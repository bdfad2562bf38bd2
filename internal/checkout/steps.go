package checkout

import "github.com/carnimore/storefront-backend/pkg/enums"

// StepsFor derives the checkout sequence from the cart's transfer
// requirements. Contact is always first and payment always last; the middle
// steps appear only when the cart needs them.
func StepsFor(needsFFL, needsShipping bool) []enums.CheckoutStep {
	steps := make([]enums.CheckoutStep, 0, 4)
	steps = append(steps, enums.CheckoutStepContact)
	if needsShipping {
		steps = append(steps, enums.CheckoutStepShipping)
	}
	if needsFFL {
		steps = append(steps, enums.CheckoutStepFFL)
	}
	steps = append(steps, enums.CheckoutStepPayment)
	return steps
}
