package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/internal/orders"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/metrics"
	"github.com/carnimore/storefront-backend/pkg/outbox"
	"github.com/carnimore/storefront-backend/pkg/square"
	"github.com/carnimore/storefront-backend/pkg/types"
)

type cartReader interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (*cart.CartDTO, error)
	AssessFFL(ctx context.Context, cartID uuid.UUID) (*cart.FFLAssessment, error)
	MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type orderCreator interface {
	CreateOrder(ctx context.Context, tx *gorm.DB, input orders.CreateOrderInput) (*orders.OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type processor interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	LocationID() string
}

type transactionRecorder interface {
	SetProcessorTransaction(ctx context.Context, id uuid.UUID, resp types.ProcessorResponse) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service accepts payment submissions. Submission acknowledges receipt only;
// the outcome is resolved later by polling, so Process always reports
// pending. A processor-level error here is logged, never returned.
type Service interface {
	Process(ctx context.Context, input PaymentInput) (*Receipt, error)
}

type service struct {
	carts        cartReader
	orders       orderCreator
	transactions transactionRecorder
	tx           txRunner
	processor    processor
	events       eventEmitter
	metrics      *metrics.CheckoutMetrics
	cfg          config.CheckoutConfig
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the payment service. The clock is injected so expiry
// validation is testable at a fixed instant.
func NewService(
	carts cartReader,
	orderSvc orderCreator,
	transactions transactionRecorder,
	tx txRunner,
	proc processor,
	events eventEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
	now func() time.Time,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if transactions == nil {
		return nil, fmt.Errorf("transaction recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if proc == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	return &service{
		carts:        carts,
		orders:       orderSvc,
		transactions: transactions,
		tx:           tx,
		processor:    proc,
		events:       events,
		metrics:      checkoutMetrics,
		cfg:          cfg,
		logg:         logg,
		now:          now,
	}, nil
}

// Process validates, normalizes, records the pending order, and submits the
// charge. The settle delay gives order creation time to land before the
// client starts polling.
func (s *service) Process(ctx context.Context, input PaymentInput) (*Receipt, error) {
	assessment, err := s.carts.AssessFFL(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input, assessment.RequiresFFL, assessment.HasNonFFLItems, s.now()); err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}

	cartDTO, err := s.carts.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if len(cartDTO.Items) == 0 {
		s.metrics.IncSubmission("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	norm := normalize(input)
	logCtx := s.logg.WithOrderID(s.logg.WithCartID(ctx, input.CartID.String()), input.OrderID.String())

	if err := s.createPendingOrder(logCtx, input, cartDTO, norm); err != nil {
		return nil, err
	}

	s.submitCharge(logCtx, input, norm)
	s.metrics.IncSubmission("accepted")

	s.settle(ctx)
	return &Receipt{
		OrderID: input.OrderID,
		Status:  enums.PaymentStatusPending,
		Amount:  norm.Amount,
	}, nil
}

func (s *service) createPendingOrder(ctx context.Context, input PaymentInput, cartDTO *cart.CartDTO, norm normalized) error {
	items := make([]orders.OrderLineItemDTO, 0, len(cartDTO.Items))
	for _, line := range cartDTO.Items {
		productID := line.ProductID
		items = append(items, orders.OrderLineItemDTO{
			ProductID:      &productID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.PriceCents,
			TotalCents:     line.PriceCents * line.Quantity,
			Options:        line.Options,
		})
	}

	billing := input.BillingAddress.Normalize()
	var shipping *types.Address
	if input.ShippingAddress != nil {
		normalizedShipping := input.ShippingAddress.Normalize()
		shipping = &normalizedShipping
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.orders.CreateOrder(ctx, tx, orders.CreateOrderInput{
			ID:              input.OrderID,
			UserID:          input.UserID,
			CartID:          &input.CartID,
			Email:           input.Email,
			Phone:           input.Phone,
			TotalCents:      int(norm.AmountCents),
			Contact:         input.Contact,
			BillingAddress:  billing,
			ShippingAddress: shipping,
			FFLDealer:       input.FFLDealer,
			Items:           items,
		})
		if err != nil {
			return err
		}
		if err := s.carts.MarkConverted(ctx, tx, input.CartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking cart converted")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSubmitted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   input.OrderID,
			Data: map[string]any{
				"order_id":    input.OrderID.String(),
				"cart_id":     input.CartID.String(),
				"total_cents": norm.AmountCents,
			},
			Version: 1,
		})
	})
}

// submitCharge sends the single processor call. Errors are logged at warn and
// swallowed; polling determines the true outcome.
func (s *service) submitCharge(ctx context.Context, input PaymentInput, norm normalized) {
	payment, err := s.processor.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    norm.AmountCents,
		Currency:       "USD",
		LocationID:     s.processor.LocationID(),
		SourceID:       input.SourceID,
		IdempotencyKey: input.OrderID.String(),
		ReferenceID:    input.OrderID.String(),
		BuyerEmail:     input.Email,
		BillingAddress: squareAddress(input.BillingAddress, input.NameOnCard),
	})
	if err != nil {
		s.metrics.IncSubmission("processor_error")
		s.logg.Warn(ctx, "processor rejected submission, deferring to resolution")
		return
	}

	transactionID := ""
	if payment != nil && payment.GetID() != nil {
		transactionID = *payment.GetID()
	}
	if transactionID == "" {
		s.logg.Warn(ctx, "processor returned no payment id")
		return
	}
	if err := s.transactions.SetProcessorTransaction(ctx, input.OrderID, types.ProcessorResponse{TransactionID: transactionID}); err != nil {
		s.logg.Warn(ctx, "recording processor transaction failed")
	}
}

func (s *service) settle(ctx context.Context) {
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func squareAddress(addr *types.Address, recipient string) *sq.Address {
	if addr == nil {
		return nil
	}
	normalizedAddr := addr.Normalize()
	out := &sq.Address{
		AddressLine1:                 strPtr(normalizedAddr.Street),
		Locality:                     strPtr(normalizedAddr.City),
		AdministrativeDistrictLevel1: strPtr(normalizedAddr.State),
		PostalCode:                   strPtr(normalizedAddr.Zip),
	}
	if recipient != "" {
		out.FirstName = strPtr(recipient)
	}
	return out
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
