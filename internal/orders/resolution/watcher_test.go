package resolution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/orders"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/metrics"
	"github.com/carnimore/storefront-backend/pkg/outbox"
	"github.com/carnimore/storefront-backend/pkg/types"
)

type fakeOrderStore struct {
	mu            sync.Mutex
	order         *models.Order
	hiddenForCall int
	findCalls     int
	paidCalls     int
	failedCalls   int
}

func (f *fakeOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findCalls <= f.hiddenForCall {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.order
	return &copied, nil
}

func (f *fakeOrderStore) MarkPaid(ctx context.Context, tx *gorm.DB, id uuid.UUID, resp *types.ProcessorResponse) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paidCalls++
	if f.order.PaymentStatus != enums.PaymentStatusPending {
		return false, nil
	}
	f.order.PaymentStatus = enums.PaymentStatusPaid
	f.order.ProcessorResponse = resp
	return true, nil
}

func (f *fakeOrderStore) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedCalls++
	if f.order.PaymentStatus != enums.PaymentStatusPending {
		return false, nil
	}
	f.order.PaymentStatus = enums.PaymentStatusFailed
	f.order.ResponseMessage = &message
	return true, nil
}

func (f *fakeOrderStore) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order.PaymentStatus == enums.PaymentStatusPending && f.order.CreatedAt.Before(cutoff) {
		return []models.Order{*f.order}, nil
	}
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeProcessor struct {
	mu       sync.Mutex
	statuses []string
	calls    int
}

func (f *fakeProcessor) GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[len(f.statuses)-1]
	if f.calls < len(f.statuses) {
		status = f.statuses[f.calls]
	}
	f.calls++
	return &sq.Payment{ID: strPtr(paymentID), Status: strPtr(status)}, nil
}

type fakeCartClearer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCartClearer) Clear(ctx context.Context, cartID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func strPtr(s string) *string { return &s }

func newWatcherForTest(t *testing.T, cfg config.ResolutionConfig, store *fakeOrderStore, processor *fakeProcessor, carts *fakeCartClearer, events *fakeEmitter) *Watcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "resolution-test", Level: zerolog.ErrorLevel})
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	watcher, err := NewWatcher(cfg, store, fakeTxRunner{}, processor, carts, events, checkoutMetrics, logg, orders.IsNotFound)
	require.NoError(t, err)
	return watcher
}

func pendingOrder(cartID uuid.UUID, transactionID string) *models.Order {
	return &models.Order{
		ID:                uuid.New(),
		CartID:            &cartID,
		PaymentStatus:     enums.PaymentStatusPending,
		TotalCents:        129900,
		ProcessorResponse: &types.ProcessorResponse{TransactionID: transactionID},
		CreatedAt:         time.Now(),
	}
}

func TestWatchResolvesPaidExactlyOnce(t *testing.T) {
	cartID := uuid.New()
	store := &fakeOrderStore{order: pendingOrder(cartID, "sq-pay-1"), hiddenForCall: 1}
	processor := &fakeProcessor{statuses: []string{"PENDING", "PENDING", "COMPLETED"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	err := watcher.Watch(context.Background(), store.order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPaid, store.order.PaymentStatus)
	assert.Equal(t, 1, store.paidCalls)
	assert.Equal(t, 1, carts.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, enums.EventOrderPaid, events.events[0].EventType)
}

func TestWatchNotFoundKeepsPolling(t *testing.T) {
	cartID := uuid.New()
	store := &fakeOrderStore{order: pendingOrder(cartID, "sq-pay-2"), hiddenForCall: 2}
	processor := &fakeProcessor{statuses: []string{"COMPLETED"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	err := watcher.Watch(context.Background(), store.order.ID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, store.findCalls, 3)
	assert.Equal(t, enums.PaymentStatusPaid, store.order.PaymentStatus)
	assert.Equal(t, 1, carts.calls)
}

func TestWatchTimeoutFailsExactlyOnce(t *testing.T) {
	cartID := uuid.New()
	store := &fakeOrderStore{order: pendingOrder(cartID, "sq-pay-3")}
	processor := &fakeProcessor{statuses: []string{"PENDING"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      60 * time.Millisecond,
	}, store, processor, carts, events)

	err := watcher.Watch(context.Background(), store.order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, store.order.PaymentStatus)
	require.NotNil(t, store.order.ResponseMessage)
	assert.Equal(t, timeoutMessage, *store.order.ResponseMessage)
	assert.Zero(t, carts.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, enums.EventOrderFailed, events.events[0].EventType)
}

func TestWatchFailedPayment(t *testing.T) {
	cartID := uuid.New()
	store := &fakeOrderStore{order: pendingOrder(cartID, "sq-pay-4")}
	processor := &fakeProcessor{statuses: []string{"FAILED"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	err := watcher.Watch(context.Background(), store.order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, store.order.PaymentStatus)
	assert.Zero(t, carts.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, enums.EventOrderFailed, events.events[0].EventType)
}

func TestRunDispatchesWatchForPendingOrder(t *testing.T) {
	cartID := uuid.New()
	order := pendingOrder(cartID, "sq-pay-6")
	order.CreatedAt = time.Now().Add(-time.Second)
	store := &fakeOrderStore{order: order}
	processor := &fakeProcessor{statuses: []string{"COMPLETED"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	err := watcher.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, enums.PaymentStatusPaid, store.order.PaymentStatus)
	assert.Equal(t, 1, store.paidCalls)
	assert.Equal(t, 1, carts.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, enums.EventOrderPaid, events.events[0].EventType)
}

func TestRunExpiresOrderPastDeadline(t *testing.T) {
	cartID := uuid.New()
	order := pendingOrder(cartID, "sq-pay-7")
	order.CreatedAt = time.Now().Add(-time.Hour)
	store := &fakeOrderStore{order: order}
	processor := &fakeProcessor{statuses: []string{"PENDING"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := watcher.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, enums.PaymentStatusFailed, store.order.PaymentStatus)
	assert.Equal(t, 1, store.failedCalls)
	require.NotNil(t, store.order.ResponseMessage)
	assert.Equal(t, timeoutMessage, *store.order.ResponseMessage)
	assert.Zero(t, carts.calls)
	require.Len(t, events.events, 1)
	assert.Equal(t, enums.EventOrderFailed, events.events[0].EventType)
}

func TestWatchShutdownLeavesOrderPending(t *testing.T) {
	cartID := uuid.New()
	store := &fakeOrderStore{order: pendingOrder(cartID, "sq-pay-5")}
	processor := &fakeProcessor{statuses: []string{"PENDING"}}
	carts := &fakeCartClearer{}
	events := &fakeEmitter{}

	watcher := newWatcherForTest(t, config.ResolutionConfig{
		InitialDelay: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, store, processor, carts, events)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := watcher.Watch(ctx, store.order.ID)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, enums.PaymentStatusPending, store.order.PaymentStatus)
	assert.Empty(t, events.events)
}
