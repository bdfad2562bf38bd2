package checkout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// CardRef is the masked payment reference kept in the session. Raw card data
// never touches the session store.
type CardRef struct {
	NameOnCard string `json:"name_on_card"`
	Last4      string `json:"last4"`
}

// CheckoutData accumulates the step payloads collected so far.
type CheckoutData struct {
	Contact         *types.ContactInfo   `json:"contact,omitempty"`
	ShippingAddress *types.Address       `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address       `json:"billing_address,omitempty"`
	FFLDealer       *types.FFLDealerInfo `json:"ffl_dealer,omitempty"`
	Payment         *CardRef             `json:"payment,omitempty"`
}

// DataPatch carries a shallow merge of step payloads; nil fields are left
// untouched.
type DataPatch struct {
	Contact         *types.ContactInfo
	ShippingAddress *types.Address
	BillingAddress  *types.Address
	FFLDealer       *types.FFLDealerInfo
	Payment         *CardRef
}

// Flow is the per-cart checkout session state persisted in Redis.
type Flow struct {
	CartID         uuid.UUID                     `json:"cart_id"`
	Steps          []enums.CheckoutStep          `json:"steps"`
	CurrentStep    enums.CheckoutStep            `json:"current_step"`
	CompletedSteps map[enums.CheckoutStep]bool   `json:"completed_steps"`
	Data           CheckoutData                  `json:"data"`
	RequiresFFL    bool                          `json:"requires_ffl"`
	NeedsShipping  bool                          `json:"needs_shipping"`
}

// NewFlow starts a flow at the contact step for the derived sequence.
func NewFlow(cartID uuid.UUID, needsFFL, needsShipping bool) *Flow {
	steps := StepsFor(needsFFL, needsShipping)
	return &Flow{
		CartID:         cartID,
		Steps:          steps,
		CurrentStep:    steps[0],
		CompletedSteps: map[enums.CheckoutStep]bool{},
		RequiresFFL:    needsFFL,
		NeedsShipping:  needsShipping,
	}
}

// HasStep reports whether the step belongs to this flow's sequence.
func (f *Flow) HasStep(step enums.CheckoutStep) bool {
	for _, candidate := range f.Steps {
		if candidate == step {
			return true
		}
	}
	return false
}

// AvailableSteps lists the steps the client may navigate to: every completed
// step plus the current one.
func (f *Flow) AvailableSteps() []enums.CheckoutStep {
	available := make([]enums.CheckoutStep, 0, len(f.Steps))
	for _, step := range f.Steps {
		if step == f.CurrentStep || f.CompletedSteps[step] {
			available = append(available, step)
		}
	}
	return available
}

// ValidateStep checks whether the collected data satisfies the step.
func (f *Flow) ValidateStep(step enums.CheckoutStep) bool {
	switch step {
	case enums.CheckoutStepContact:
		return f.Data.Contact != nil && f.Data.Contact.Complete()
	case enums.CheckoutStepShipping:
		return f.Data.ShippingAddress != nil && f.Data.ShippingAddress.Complete()
	case enums.CheckoutStepFFL:
		return f.Data.FFLDealer != nil && f.Data.FFLDealer.Complete()
	case enums.CheckoutStepPayment:
		return f.Data.Payment != nil && f.Data.Payment.NameOnCard != ""
	default:
		return false
	}
}

// MarkStepComplete records the step as done.
func (f *Flow) MarkStepComplete(step enums.CheckoutStep) {
	if !f.HasStep(step) {
		return
	}
	f.CompletedSteps[step] = true
}

// GoToNextStep advances to the next step in the sequence. On the last step it
// is a no-op.
func (f *Flow) GoToNextStep() {
	for i, step := range f.Steps {
		if step != f.CurrentStep {
			continue
		}
		if i+1 < len(f.Steps) {
			f.CurrentStep = f.Steps[i+1]
		}
		return
	}
}

// SetCurrentStep moves to a step the client is allowed to reach: the current
// step or any completed one. Forward jumps past incomplete steps are refused.
func (f *Flow) SetCurrentStep(step enums.CheckoutStep) error {
	if !f.HasStep(step) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("step %q is not part of this checkout", step))
	}
	if step == f.CurrentStep || f.CompletedSteps[step] {
		f.CurrentStep = step
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("step %q is not reachable yet", step))
}

// UpdateData shallow-merges the patch into the collected data.
func (f *Flow) UpdateData(patch DataPatch) {
	if patch.Contact != nil {
		f.Data.Contact = patch.Contact
	}
	if patch.ShippingAddress != nil {
		f.Data.ShippingAddress = patch.ShippingAddress
	}
	if patch.BillingAddress != nil {
		f.Data.BillingAddress = patch.BillingAddress
	}
	if patch.FFLDealer != nil {
		// The dealer snapshot is immutable once attached.
		if f.Data.FFLDealer == nil {
			f.Data.FFLDealer = patch.FFLDealer
		}
	}
	if patch.Payment != nil {
		f.Data.Payment = patch.Payment
	}
}

// IsLastStep reports whether the flow sits on its final step.
func (f *Flow) IsLastStep() bool {
	return len(f.Steps) > 0 && f.CurrentStep == f.Steps[len(f.Steps)-1]
}
