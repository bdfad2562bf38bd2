package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

type cartAssessor interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (*cart.CartDTO, error)
	AssessFFL(ctx context.Context, cartID uuid.UUID) (*cart.FFLAssessment, error)
}

type flowStore interface {
	Save(ctx context.Context, flow *Flow) error
	Load(ctx context.Context, cartID uuid.UUID) (*Flow, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}

// Service drives the checkout wizard: deriving the step sequence from the
// cart, persisting progress, and gating navigation server-side.
type Service interface {
	InitFlow(ctx context.Context, cartID uuid.UUID) (*Flow, error)
	GetFlow(ctx context.Context, cartID uuid.UUID) (*Flow, error)
	UpdateData(ctx context.Context, cartID uuid.UUID, patch DataPatch) (*Flow, error)
	CompleteCurrentStep(ctx context.Context, cartID uuid.UUID) (*Flow, error)
	SetCurrentStep(ctx context.Context, cartID uuid.UUID, step enums.CheckoutStep) (*Flow, error)
	EndFlow(ctx context.Context, cartID uuid.UUID) error
}

type service struct {
	carts    cartAssessor
	sessions flowStore
	logg     *logger.Logger
}

// NewService constructs the checkout service.
func NewService(carts cartAssessor, sessions flowStore, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, sessions: sessions, logg: logg}, nil
}

// InitFlow recomputes the transfer predicates and resets progress to the
// contact step. Callers re-run this whenever the cart mutates mid-checkout;
// the restart is intentional and logged so the UX implication stays visible.
func (s *service) InitFlow(ctx context.Context, cartID uuid.UUID) (*Flow, error) {
	dto, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(dto.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot start checkout with an empty cart")
	}

	assessment, err := s.carts.AssessFFL(ctx, cartID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCartID(ctx, cartID.String())
	if assessment.Warnings != nil {
		warnCtx := s.logg.WithFields(ctx, map[string]any{"warnings": assessment.Warnings.Error()})
		s.logg.Warn(warnCtx, "checkout initialized with degraded category flags")
	}

	if existing, err := s.sessions.Load(ctx, cartID); err == nil && existing != nil {
		s.logg.Warn(ctx, "restarting checkout flow, prior progress discarded")
	}

	flow := NewFlow(cartID, assessment.RequiresFFL, assessment.HasNonFFLItems)
	if err := s.sessions.Save(ctx, flow); err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "checkout flow initialized")
	return flow, nil
}

// GetFlow loads the persisted flow for the cart and reconciles it against the
// cart's current transfer predicates. Every navigation and data operation goes
// through here, so a cart mutation mid-checkout is picked up on the next flow
// access no matter which endpoint the client hits.
func (s *service) GetFlow(ctx context.Context, cartID uuid.UUID) (*Flow, error) {
	flow, err := s.sessions.Load(ctx, cartID)
	if err != nil {
		if err == ErrSessionNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout session for this cart")
		}
		return nil, err
	}
	return s.reconcile(ctx, flow)
}

// reconcile restarts the flow when the cart has mutated since initialization
// and its step sequence no longer matches (a firearm added after checkout
// began, say). Progress returns to the contact step; collected data survives
// the restart so the buyer does not re-enter it.
func (s *service) reconcile(ctx context.Context, flow *Flow) (*Flow, error) {
	assessment, err := s.carts.AssessFFL(ctx, flow.CartID)
	if err != nil {
		return nil, err
	}
	if assessment.RequiresFFL == flow.RequiresFFL && assessment.HasNonFFLItems == flow.NeedsShipping {
		return flow, nil
	}

	ctx = s.logg.WithCartID(ctx, flow.CartID.String())
	s.logg.Warn(ctx, "cart changed mid-checkout, restarting flow at contact")

	fresh := NewFlow(flow.CartID, assessment.RequiresFFL, assessment.HasNonFFLItems)
	fresh.Data = flow.Data
	if err := s.sessions.Save(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// UpdateData merges the patch into the session and persists it.
func (s *service) UpdateData(ctx context.Context, cartID uuid.UUID, patch DataPatch) (*Flow, error) {
	flow, err := s.GetFlow(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if patch.ShippingAddress != nil {
		if err := patch.ShippingAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
		}
	}
	if patch.BillingAddress != nil {
		if err := patch.BillingAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
		}
	}
	flow.UpdateData(patch)
	if err := s.sessions.Save(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// CompleteCurrentStep validates the current step's data, marks it complete,
// and advances. On the final step the position is unchanged.
func (s *service) CompleteCurrentStep(ctx context.Context, cartID uuid.UUID) (*Flow, error) {
	flow, err := s.GetFlow(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !flow.ValidateStep(flow.CurrentStep) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("step %q is missing required information", flow.CurrentStep))
	}
	flow.MarkStepComplete(flow.CurrentStep)
	flow.GoToNextStep()
	if err := s.sessions.Save(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// SetCurrentStep navigates to a previously reached step. The reachability
// check runs server-side so the client cannot jump ahead.
func (s *service) SetCurrentStep(ctx context.Context, cartID uuid.UUID, step enums.CheckoutStep) (*Flow, error) {
	flow, err := s.GetFlow(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := flow.SetCurrentStep(step); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// EndFlow drops the session after submission.
func (s *service) EndFlow(ctx context.Context, cartID uuid.UUID) error {
	return s.sessions.Delete(ctx, cartID)
}
