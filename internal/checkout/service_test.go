package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/types"
)

type fakeCartAssessor struct {
	mu         sync.Mutex
	cart       *cart.CartDTO
	assessment cart.FFLAssessment
}

func (f *fakeCartAssessor) GetCart(ctx context.Context, cartID uuid.UUID) (*cart.CartDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart, nil
}

func (f *fakeCartAssessor) AssessFFL(ctx context.Context, cartID uuid.UUID) (*cart.FFLAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := f.assessment
	return &copied, nil
}

func (f *fakeCartAssessor) setAssessment(a cart.FFLAssessment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessment = a
}

type fakeFlowStore struct {
	mu    sync.Mutex
	flows map[uuid.UUID]*Flow
}

func newFakeFlowStore() *fakeFlowStore {
	return &fakeFlowStore{flows: map[uuid.UUID]*Flow{}}
}

func (f *fakeFlowStore) Save(ctx context.Context, flow *Flow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flows[flow.CartID] = flow
	return nil
}

func (f *fakeFlowStore) Load(ctx context.Context, cartID uuid.UUID) (*Flow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.flows[cartID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return flow, nil
}

func (f *fakeFlowStore) Delete(ctx context.Context, cartID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flows, cartID)
	return nil
}

func newServiceForTest(t *testing.T, assessor *fakeCartAssessor, store *fakeFlowStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(assessor, store, logg)
	require.NoError(t, err)
	return svc
}

func accessoryCart(cartID uuid.UUID) *cart.CartDTO {
	return &cart.CartDTO{
		ID:     cartID,
		Status: enums.CartStatusActive,
		Items: []cart.CartItemDTO{
			{ID: uuid.New(), ProductID: uuid.New(), CategoryID: uuid.New(), Name: "Cleaning Kit", PriceCents: 4999, Quantity: 1},
		},
	}
}

func TestGetFlowRestartsWhenCartGainsFirearm(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	assessor := &fakeCartAssessor{
		cart:       accessoryCart(cartID),
		assessment: cart.FFLAssessment{HasNonFFLItems: true},
	}
	svc := newServiceForTest(t, assessor, newFakeFlowStore())

	flow, err := svc.InitFlow(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t,
		[]enums.CheckoutStep{enums.CheckoutStepContact, enums.CheckoutStepShipping, enums.CheckoutStepPayment},
		flow.Steps)
	require.False(t, flow.RequiresFFL)

	contact := &types.ContactInfo{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Phone: "555-0100"}
	_, err = svc.UpdateData(ctx, cartID, DataPatch{Contact: contact})
	require.NoError(t, err)
	flow, err = svc.CompleteCurrentStep(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepShipping, flow.CurrentStep)

	// A rifle lands in the cart after checkout began.
	assessor.setAssessment(cart.FFLAssessment{RequiresFFL: true, HasNonFFLItems: true})

	flow, err = svc.GetFlow(ctx, cartID)
	require.NoError(t, err)

	assert.Equal(t,
		[]enums.CheckoutStep{
			enums.CheckoutStepContact,
			enums.CheckoutStepShipping,
			enums.CheckoutStepFFL,
			enums.CheckoutStepPayment,
		},
		flow.Steps)
	assert.True(t, flow.RequiresFFL)
	assert.Equal(t, enums.CheckoutStepContact, flow.CurrentStep)
	assert.Empty(t, flow.CompletedSteps)
	assert.Equal(t, contact, flow.Data.Contact)
}

func TestGetFlowRestartPersistsAcrossReads(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	assessor := &fakeCartAssessor{
		cart:       accessoryCart(cartID),
		assessment: cart.FFLAssessment{HasNonFFLItems: true},
	}
	store := newFakeFlowStore()
	svc := newServiceForTest(t, assessor, store)

	_, err := svc.InitFlow(ctx, cartID)
	require.NoError(t, err)

	assessor.setAssessment(cart.FFLAssessment{RequiresFFL: true})

	_, err = svc.GetFlow(ctx, cartID)
	require.NoError(t, err)

	saved, err := store.Load(ctx, cartID)
	require.NoError(t, err)
	assert.True(t, saved.RequiresFFL)
	assert.True(t, saved.HasStep(enums.CheckoutStepFFL))
	assert.False(t, saved.HasStep(enums.CheckoutStepShipping))
}

func TestGetFlowUnchangedCartKeepsProgress(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	assessor := &fakeCartAssessor{
		cart:       accessoryCart(cartID),
		assessment: cart.FFLAssessment{HasNonFFLItems: true},
	}
	svc := newServiceForTest(t, assessor, newFakeFlowStore())

	_, err := svc.InitFlow(ctx, cartID)
	require.NoError(t, err)

	contact := &types.ContactInfo{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Phone: "555-0100"}
	_, err = svc.UpdateData(ctx, cartID, DataPatch{Contact: contact})
	require.NoError(t, err)
	_, err = svc.CompleteCurrentStep(ctx, cartID)
	require.NoError(t, err)

	flow, err := svc.GetFlow(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, flow.CurrentStep)
	assert.True(t, flow.CompletedSteps[enums.CheckoutStepContact])
}

func TestInitFlowEmptyCartRejected(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	assessor := &fakeCartAssessor{
		cart: &cart.CartDTO{ID: cartID, Status: enums.CartStatusActive},
	}
	svc := newServiceForTest(t, assessor, newFakeFlowStore())

	_, err := svc.InitFlow(ctx, cartID)
	require.Error(t, err)
}
