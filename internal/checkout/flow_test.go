package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/types"
)

func TestStepsFor(t *testing.T) {
	cases := []struct {
		name          string
		needsFFL      bool
		needsShipping bool
		want          []enums.CheckoutStep
	}{
		{
			name: "accessories only",
			needsShipping: true,
			want: []enums.CheckoutStep{enums.CheckoutStepContact, enums.CheckoutStepShipping, enums.CheckoutStepPayment},
		},
		{
			name:     "firearms only",
			needsFFL: true,
			want:     []enums.CheckoutStep{enums.CheckoutStepContact, enums.CheckoutStepFFL, enums.CheckoutStepPayment},
		},
		{
			name:          "mixed cart",
			needsFFL:      true,
			needsShipping: true,
			want: []enums.CheckoutStep{
				enums.CheckoutStepContact,
				enums.CheckoutStepShipping,
				enums.CheckoutStepFFL,
				enums.CheckoutStepPayment,
			},
		},
		{
			name: "neither",
			want: []enums.CheckoutStep{enums.CheckoutStepContact, enums.CheckoutStepPayment},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StepsFor(tc.needsFFL, tc.needsShipping))
		})
	}
}

func TestValidateStepContactRequiresEveryField(t *testing.T) {
	complete := types.ContactInfo{
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     "ana@example.com",
		Phone:     "555-0100",
	}

	cases := []struct {
		name   string
		mutate func(*types.ContactInfo)
		want   bool
	}{
		{name: "all fields present", mutate: func(c *types.ContactInfo) {}, want: true},
		{name: "missing first name", mutate: func(c *types.ContactInfo) { c.FirstName = "" }},
		{name: "missing last name", mutate: func(c *types.ContactInfo) { c.LastName = "" }},
		{name: "missing email", mutate: func(c *types.ContactInfo) { c.Email = "" }},
		{name: "missing phone", mutate: func(c *types.ContactInfo) { c.Phone = "" }},
		{name: "whitespace-only phone", mutate: func(c *types.ContactInfo) { c.Phone = "   " }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			contact := complete
			tc.mutate(&contact)
			flow := NewFlow(uuid.New(), false, false)
			flow.UpdateData(DataPatch{Contact: &contact})
			assert.Equal(t, tc.want, flow.ValidateStep(enums.CheckoutStepContact))
		})
	}
}

func TestValidateStepContactNoContactCollected(t *testing.T) {
	flow := NewFlow(uuid.New(), false, false)
	assert.False(t, flow.ValidateStep(enums.CheckoutStepContact))
}

func TestGoToNextStepLastStepNoOp(t *testing.T) {
	flow := NewFlow(uuid.New(), false, false)
	require.Equal(t, enums.CheckoutStepContact, flow.CurrentStep)

	flow.MarkStepComplete(enums.CheckoutStepContact)
	flow.GoToNextStep()
	require.Equal(t, enums.CheckoutStepPayment, flow.CurrentStep)
	require.True(t, flow.IsLastStep())

	flow.GoToNextStep()
	assert.Equal(t, enums.CheckoutStepPayment, flow.CurrentStep)
}

func TestSetCurrentStepGating(t *testing.T) {
	flow := NewFlow(uuid.New(), true, true)

	err := flow.SetCurrentStep(enums.CheckoutStepPayment)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	flow.MarkStepComplete(enums.CheckoutStepContact)
	flow.GoToNextStep()
	require.Equal(t, enums.CheckoutStepShipping, flow.CurrentStep)

	require.NoError(t, flow.SetCurrentStep(enums.CheckoutStepContact))
	assert.Equal(t, enums.CheckoutStepContact, flow.CurrentStep)

	require.NoError(t, flow.SetCurrentStep(enums.CheckoutStepShipping))

	err = flow.SetCurrentStep(enums.CheckoutStepFFL)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSetCurrentStepOutsideFlow(t *testing.T) {
	flow := NewFlow(uuid.New(), false, true)

	err := flow.SetCurrentStep(enums.CheckoutStepFFL)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateDataDealerImmutable(t *testing.T) {
	flow := NewFlow(uuid.New(), true, false)

	first := &types.FFLDealerInfo{BusinessName: "Summit Arms", LicenseNumber: "1-23-456-07-8A-90123"}
	flow.UpdateData(DataPatch{FFLDealer: first})
	require.Equal(t, first, flow.Data.FFLDealer)

	second := &types.FFLDealerInfo{BusinessName: "Other Shop", LicenseNumber: "9-99-999-09-9Z-99999"}
	flow.UpdateData(DataPatch{FFLDealer: second})
	assert.Equal(t, first, flow.Data.FFLDealer)
}

func TestAvailableSteps(t *testing.T) {
	flow := NewFlow(uuid.New(), true, true)
	assert.Equal(t, []enums.CheckoutStep{enums.CheckoutStepContact}, flow.AvailableSteps())

	flow.MarkStepComplete(enums.CheckoutStepContact)
	flow.GoToNextStep()
	assert.Equal(t,
		[]enums.CheckoutStep{enums.CheckoutStepContact, enums.CheckoutStepShipping},
		flow.AvailableSteps())
}
