package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	"github.com/carnimore/storefront-backend/pkg/pagination"
	"github.com/carnimore/storefront-backend/pkg/types"
)

// Repository wires together order persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the pending order with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one admin page of orders, newest first.
func (r *Repository) List(ctx context.Context, input ListOrdersInput) ([]models.Order, *string, error) {
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit))

	if input.Status != nil {
		query = query.Where("payment_status = ?", *input.Status)
	}
	if input.UserID != nil {
		query = query.Where("user_id = ?", *input.UserID)
	}
	if input.Pagination.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, nil, err
		}
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var nextCursor *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		nextCursor = &encoded
	}
	return rows, nextCursor, nil
}

// SetProcessorTransaction records the processor's payment id on a still
// pending order so the resolver can look it up later.
func (r *Repository) SetProcessorTransaction(ctx context.Context, id uuid.UUID, resp types.ProcessorResponse) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_processor_response": resp,
		}).Error
}

// MarkPaid transitions a pending order to paid. The status guard makes the
// terminal transition happen at most once; callers inspect the returned flag.
func (r *Repository) MarkPaid(ctx context.Context, tx *gorm.DB, id uuid.UUID, resp *types.ProcessorResponse) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"resolved_at":    time.Now().UTC(),
	}
	if resp != nil {
		updates["payment_processor_response"] = *resp
	}
	return r.markTerminal(ctx, tx, id, updates)
}

// MarkFailed transitions a pending order to failed with a human-readable
// message. Same at-most-once guard as MarkPaid.
func (r *Repository) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) (bool, error) {
	return r.markTerminal(ctx, tx, id, map[string]any{
		"payment_status":   enums.PaymentStatusFailed,
		"response_message": message,
		"resolved_at":      time.Now().UTC(),
	})
}

func (r *Repository) markTerminal(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindPendingBefore returns pending orders created before the cutoff, oldest
// first, for the resolver sweep.
func (r *Repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsNotFound reports whether the error is the driver's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
