package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/internal/orders"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/outbox"
	"github.com/carnimore/storefront-backend/pkg/square"
	"github.com/carnimore/storefront-backend/pkg/types"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type fakeCarts struct {
	assessment cart.FFLAssessment
	cartDTO    *cart.CartDTO
	converted  []uuid.UUID
}

func (f *fakeCarts) GetCart(ctx context.Context, cartID uuid.UUID) (*cart.CartDTO, error) {
	return f.cartDTO, nil
}

func (f *fakeCarts) AssessFFL(ctx context.Context, cartID uuid.UUID) (*cart.FFLAssessment, error) {
	assessment := f.assessment
	return &assessment, nil
}

func (f *fakeCarts) MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	f.converted = append(f.converted, cartID)
	return nil
}

type fakeOrderCreator struct {
	created []orders.CreateOrderInput
}

func (f *fakeOrderCreator) CreateOrder(ctx context.Context, tx *gorm.DB, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	f.created = append(f.created, input)
	return &orders.OrderDTO{ID: input.ID, PaymentStatus: enums.PaymentStatusPending}, nil
}

type fakeRecorder struct {
	recorded []types.ProcessorResponse
}

func (f *fakeRecorder) SetProcessorTransaction(ctx context.Context, id uuid.UUID, resp types.ProcessorResponse) error {
	f.recorded = append(f.recorded, resp)
	return nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeProcessor struct {
	err     error
	params  []square.PaymentCreateParams
	payment *sq.Payment
}

func (f *fakeProcessor) CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.payment, nil
}

func (f *fakeProcessor) LocationID() string { return "LOC1" }

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	svc       Service
	carts     *fakeCarts
	orders    *fakeOrderCreator
	recorder  *fakeRecorder
	processor *fakeProcessor
	emitter   *fakeEmitter
}

func newHarness(t *testing.T, assessment cart.FFLAssessment) *harness {
	t.Helper()
	paymentID := "sq-pay-1"
	h := &harness{
		carts: &fakeCarts{
			assessment: assessment,
			cartDTO: &cart.CartDTO{
				ID:     uuid.New(),
				Status: enums.CartStatusActive,
				Items: []cart.CartItemDTO{
					{ID: uuid.New(), ProductID: uuid.New(), Name: "Test Rifle", PriceCents: 129900, Quantity: 1},
				},
			},
		},
		orders:    &fakeOrderCreator{},
		recorder:  &fakeRecorder{},
		processor: &fakeProcessor{payment: &sq.Payment{ID: &paymentID}},
		emitter:   &fakeEmitter{},
	}
	logg := logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(
		h.carts, h.orders, h.recorder, fakeTx{}, h.processor, h.emitter, nil,
		config.CheckoutConfig{SettleDelay: time.Millisecond}, logg,
		func() time.Time { return testNow },
	)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func validInput() PaymentInput {
	return PaymentInput{
		OrderID:     uuid.New(),
		CartID:      uuid.New(),
		CardNumber:  "4111 1111 1111 1111",
		ExpiryMonth: "3",
		ExpiryYear:  "2027",
		CVV:         "123",
		NameOnCard:  "Jordan Shooter",
		SourceID:    "cnon:card-nonce-ok",
		Amount:      decimal.RequireFromString("1299.00"),
		Email:       "jordan@example.com",
		Phone:       "5551234567",
		Contact: types.ContactInfo{
			FirstName: "Jordan", LastName: "Shooter",
			Email: "jordan@example.com", Phone: "5551234567",
		},
		BillingAddress:  &types.Address{Street: "1 Main St", City: "Helena", State: "MT", Zip: "59601"},
		ShippingAddress: &types.Address{Street: "1 Main St", City: "Helena", State: "MT", Zip: "59601"},
	}
}

func requireValidationError(t *testing.T, err error, fragment string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), fragment)
}

func TestProcessAlwaysReturnsPending(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})

	receipt, err := h.svc.Process(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, receipt.Status)
	assert.Equal(t, "1299.00", receipt.Amount)
	require.Len(t, h.orders.created, 1)
	require.Len(t, h.carts.converted, 1)
	require.Len(t, h.emitter.events, 1)
	assert.Equal(t, enums.EventOrderSubmitted, h.emitter.events[0].EventType)
	require.Len(t, h.recorder.recorded, 1)
	assert.Equal(t, "sq-pay-1", h.recorder.recorded[0].TransactionID)
}

func TestProcessSwallowsProcessorError(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	h.processor.err = errors.New("gateway exploded")

	receipt, err := h.svc.Process(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, receipt.Status)
	require.Len(t, h.orders.created, 1)
	assert.Empty(t, h.recorder.recorded)
}

func TestProcessUsesOrderIDAsIdempotencyKey(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()

	_, err := h.svc.Process(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, h.processor.params, 1)
	assert.Equal(t, input.OrderID.String(), h.processor.params[0].IdempotencyKey)
	assert.Equal(t, input.OrderID.String(), h.processor.params[0].ReferenceID)
	assert.Equal(t, int64(129900), h.processor.params[0].AmountCents)
}

func TestProcessRejectsShortCardNumber(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.CardNumber = "4111 1111 1111" // 12 digits

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "card number")
	assert.Empty(t, h.orders.created)
	assert.Empty(t, h.processor.params)
}

func TestProcessRejectsFourteenDigitCard(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.CardNumber = "4111 1111 1111 11"

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "card number")
}

func TestProcessAcceptsFifteenDigitCard(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.CardNumber = "378282246310005" // 15 digits

	_, err := h.svc.Process(context.Background(), input)
	require.NoError(t, err)
}

func TestProcessExpiryCurrentMonthAccepted(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.ExpiryMonth = "3"
	input.ExpiryYear = "2026"

	_, err := h.svc.Process(context.Background(), input)
	require.NoError(t, err)
}

func TestProcessExpiryOneMonthEarlierRejected(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.ExpiryMonth = "2"
	input.ExpiryYear = "2026"

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "expired")
}

func TestProcessCVVLengths(t *testing.T) {
	for _, tc := range []struct {
		cvv string
		ok  bool
	}{
		{"123", true},
		{"1234", true},
		{"12", false},
		{"12345", false},
		{"12a", false},
	} {
		h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
		input := validInput()
		input.CVV = tc.cvv
		_, err := h.svc.Process(context.Background(), input)
		if tc.ok {
			assert.NoError(t, err, "cvv %q", tc.cvv)
		} else {
			requireValidationError(t, err, "security code")
		}
	}
}

func TestProcessRequiresDealerWhenCartNeedsFFL(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{RequiresFFL: true})
	input := validInput()
	input.FFLDealer = nil

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "FFL dealer")

	input.FFLDealer = &types.FFLDealerInfo{
		LicenseNumber: "1-23-456-07-8A-90123",
		BusinessName:  "Summit Arms",
	}
	_, err = h.svc.Process(context.Background(), input)
	require.NoError(t, err)
}

func TestProcessRequiresFormatValidShippingForNonFFLItems(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.ShippingAddress = &types.Address{Street: "1 Main St", City: "Helena", State: "Montana", Zip: "59601"}

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "state")
}

func TestProcessPresenceChecksComeFirst(t *testing.T) {
	h := newHarness(t, cart.FFLAssessment{HasNonFFLItems: true})
	input := validInput()
	input.Email = ""
	input.CardNumber = "not-a-card"

	_, err := h.svc.Process(context.Background(), input)
	requireValidationError(t, err, "email")
}

func TestNormalizeZeroPadsMonthAndStripsSpaces(t *testing.T) {
	input := validInput()
	input.ExpiryMonth = "3"
	input.Amount = decimal.RequireFromString("42.5")

	norm := normalize(input)
	assert.Equal(t, "4111111111111111", norm.CardNumber)
	assert.Equal(t, "03", norm.ExpiryMonth)
	assert.Equal(t, "42.50", norm.Amount)
	assert.Equal(t, int64(4250), norm.AmountCents)
}
