package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/metrics"
	"github.com/carnimore/storefront-backend/pkg/outbox"
	"github.com/carnimore/storefront-backend/pkg/types"
)

const timeoutMessage = "payment resolution timed out"

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, id uuid.UUID, resp *types.ProcessorResponse) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) (bool, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
}

type cartClearer interface {
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Watcher resolves a pending order's payment outcome by polling the
// processor. One cancellable context per order replaces paired interval and
// timeout handles, so cleanup is a single cancel.
type Watcher struct {
	cfg       config.ResolutionConfig
	repo      orderStore
	tx        txRunner
	processor paymentFetcher
	carts     cartClearer
	events    eventEmitter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger

	isNotFound func(error) bool
}

// NewWatcher builds the resolution watcher.
func NewWatcher(
	cfg config.ResolutionConfig,
	repo orderStore,
	tx txRunner,
	processor paymentFetcher,
	carts cartClearer,
	events eventEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	isNotFound func(error) bool,
) (*Watcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("order store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payment fetcher required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if isNotFound == nil {
		return nil, fmt.Errorf("not-found classifier required")
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 4 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 4 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Watcher{
		cfg:        cfg,
		repo:       repo,
		tx:         tx,
		processor:  processor,
		carts:      carts,
		events:     events,
		metrics:    checkoutMetrics,
		logg:       logg,
		isNotFound: isNotFound,
	}, nil
}

// Watch polls until the order reaches a terminal status or the resolution
// deadline passes. The deadline forces a failed transition with a timeout
// message; a parent cancellation (shutdown) leaves the order pending for the
// next dispatch pass.
func (w *Watcher) Watch(ctx context.Context, orderID uuid.UUID) error {
	started := time.Now()
	watchCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	logCtx := w.logg.WithOrderID(watchCtx, orderID.String())
	w.logg.Info(logCtx, "watching order resolution")

	if !w.sleep(watchCtx, w.cfg.InitialDelay) {
		return w.onDone(ctx, watchCtx, orderID, started)
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		resolved, err := w.resolveOnce(watchCtx, orderID, started)
		if err != nil {
			w.logg.Warn(w.logg.WithOrderID(watchCtx, orderID.String()), "resolution poll failed, will retry")
		}
		if resolved {
			return nil
		}
		select {
		case <-watchCtx.Done():
			return w.onDone(ctx, watchCtx, orderID, started)
		case <-ticker.C:
		}
	}
}

// Run drives the resolver binary: each poll interval it lists stale pending
// orders and hands every one to its own Watch. Returns once ctx is cancelled
// and the in-flight watches have unwound.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	active := newActiveSet()

	for {
		if err := w.dispatch(ctx, &wg, active); err != nil && ctx.Err() == nil {
			w.logg.Warn(ctx, "dispatching pending orders failed")
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dispatch picks up pending orders the API submitted, or a dead resolver left
// behind, and launches a watch for each. Orders already being watched are
// skipped; orders past the resolution deadline are expired without one.
func (w *Watcher) dispatch(ctx context.Context, wg *sync.WaitGroup, active *activeSet) error {
	cutoff := time.Now().Add(-w.cfg.InitialDelay)
	limit := w.cfg.SweepLimit
	if limit <= 0 {
		limit = 50
	}
	pending, err := w.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing pending orders")
	}
	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		order := pending[i]
		if !active.add(order.ID) {
			continue
		}
		if time.Since(order.CreatedAt) > w.cfg.Timeout {
			w.expire(ctx, order.ID, order.CreatedAt)
			active.remove(order.ID)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer active.remove(order.ID)
			if err := w.Watch(ctx, order.ID); err != nil && ctx.Err() == nil {
				w.logg.Warn(w.logg.WithOrderID(ctx, order.ID.String()), "order watch ended early")
			}
		}()
	}
	return nil
}

// activeSet tracks which orders already have a running watch so a dispatch
// pass never doubles up on one.
type activeSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newActiveSet() *activeSet {
	return &activeSet{ids: map[uuid.UUID]struct{}{}}
}

func (s *activeSet) add(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *activeSet) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (w *Watcher) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// onDone distinguishes the watch deadline from parent shutdown. Only the
// deadline marks the order failed.
func (w *Watcher) onDone(parent, watchCtx context.Context, orderID uuid.UUID, started time.Time) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(watchCtx.Err(), context.DeadlineExceeded) {
		w.expire(parent, orderID, started)
		return nil
	}
	return watchCtx.Err()
}

func (w *Watcher) expire(ctx context.Context, orderID uuid.UUID, started time.Time) {
	expireCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	marked, err := w.finalizeFailed(expireCtx, orderID, timeoutMessage)
	logCtx := w.logg.WithOrderID(expireCtx, orderID.String())
	if err != nil {
		w.logg.Error(logCtx, "marking timed-out order failed", err)
		return
	}
	if marked {
		w.metrics.IncResolution("timeout")
		w.metrics.ObserveSettleTime(time.Since(started))
		w.logg.Warn(logCtx, "order resolution timed out")
	}
}

// resolveOnce performs one poll. It returns true once the order is terminal,
// whether this poll finalized it or another resolver already had.
func (w *Watcher) resolveOnce(ctx context.Context, orderID uuid.UUID, started time.Time) (bool, error) {
	order, err := w.repo.FindByID(ctx, orderID)
	if err != nil {
		if w.isNotFound(err) {
			// Order row not yet visible. Keep polling.
			return false, nil
		}
		return false, err
	}
	if order.PaymentStatus.IsTerminal() {
		return true, nil
	}

	transactionID := ""
	if order.ProcessorResponse != nil {
		transactionID = strings.TrimSpace(order.ProcessorResponse.TransactionID)
	}
	if transactionID == "" {
		// Submission has not recorded a processor payment yet.
		return false, nil
	}

	payment, err := w.fetchPayment(ctx, transactionID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return false, nil
		}
		return false, err
	}

	switch paymentStatus(payment) {
	case "COMPLETED":
		return w.finalizePaid(ctx, order, payment, started)
	case "FAILED", "CANCELED":
		message := failureMessage(payment)
		marked, err := w.finalizeFailed(ctx, orderID, message)
		if err != nil {
			return false, err
		}
		if marked {
			w.metrics.IncResolution("failed")
			w.metrics.ObserveSettleTime(time.Since(started))
			w.logg.Warn(w.logg.WithOrderID(ctx, orderID.String()), "order payment failed")
		}
		return true, nil
	default:
		// APPROVED and PENDING are still in flight.
		return false, nil
	}
}

func (w *Watcher) fetchPayment(ctx context.Context, transactionID string) (*sq.Payment, error) {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	var payment *sq.Payment
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := w.processor.GetPayment(ctx, transactionID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency {
				return retry.RetryableError(err)
			}
			return err
		}
		payment = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (w *Watcher) finalizePaid(ctx context.Context, order *models.Order, payment *sq.Payment, started time.Time) (bool, error) {
	resp := processorResponse(payment)
	marked := false
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := w.repo.MarkPaid(ctx, tx, order.ID, resp)
		if err != nil {
			return err
		}
		marked = ok
		if !ok {
			return nil
		}
		return w.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"order_id":       order.ID.String(),
				"total_cents":    order.TotalCents,
				"transaction_id": resp.TransactionID,
			},
			Version: 1,
		})
	})
	if err != nil {
		return false, err
	}
	if !marked {
		return true, nil
	}

	// Clear the cart only after the paid state is committed, so a reader
	// observing the transition never sees an emptied cart on a pending order.
	if order.CartID != nil {
		if err := w.carts.Clear(ctx, *order.CartID); err != nil {
			w.logg.Warn(w.logg.WithOrderID(ctx, order.ID.String()), "clearing cart after payment failed")
		}
	}

	w.metrics.IncResolution("paid")
	w.metrics.ObserveSettleTime(time.Since(started))
	w.logg.Info(w.logg.WithOrderID(ctx, order.ID.String()), "order resolved paid")
	return true, nil
}

func (w *Watcher) finalizeFailed(ctx context.Context, orderID uuid.UUID, message string) (bool, error) {
	marked := false
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := w.repo.MarkFailed(ctx, tx, orderID, message)
		if err != nil {
			return err
		}
		marked = ok
		if !ok {
			return nil
		}
		return w.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: map[string]any{
				"order_id": orderID.String(),
				"message":  message,
			},
			Version: 1,
		})
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

func paymentStatus(payment *sq.Payment) string {
	if payment == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(stringValue(payment.GetStatus())))
}

func failureMessage(payment *sq.Payment) string {
	if details := cardStatusDetail(payment); details != "" {
		return details
	}
	return "payment was declined by the processor"
}

func cardStatusDetail(payment *sq.Payment) string {
	if payment == nil {
		return ""
	}
	details := payment.GetCardDetails()
	if details == nil {
		return ""
	}
	errorsList := details.GetErrors()
	if len(errorsList) == 0 {
		return ""
	}
	first := errorsList[0]
	if first == nil {
		return ""
	}
	if first.Detail != nil && *first.Detail != "" {
		return *first.Detail
	}
	return string(first.Code)
}

func processorResponse(payment *sq.Payment) *types.ProcessorResponse {
	resp := &types.ProcessorResponse{TransactionID: stringValue(payment.GetID())}
	if details := payment.GetCardDetails(); details != nil {
		resp.AuthCode = stringValue(details.GetAuthResultCode())
	}
	return resp
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
