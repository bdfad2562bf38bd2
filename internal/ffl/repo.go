package ffl

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/pagination"
)

// Repository wires together dealer directory persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads one dealer.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FFLDealer, error) {
	var dealer models.FFLDealer
	if err := r.db.WithContext(ctx).First(&dealer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dealer, nil
}

// Search returns one page of dealers in the zip, optionally narrowed by a
// name fragment, newest first.
func (r *Repository) Search(ctx context.Context, input SearchInput) ([]models.FFLDealer, *string, error) {
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.FFLDealer{}).
		Where("premise_zip = ?", input.Zip).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit))

	if fragment := strings.TrimSpace(input.Name); fragment != "" {
		pattern := "%" + strings.ToLower(fragment) + "%"
		query = query.Where("LOWER(business_name) LIKE ? OR LOWER(license_name) LIKE ?", pattern, pattern)
	}
	if input.Pagination.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, nil, err
		}
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.FFLDealer
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

// Upsert inserts the dealer or refreshes an existing license number's record.
// It reports whether a new row was created.
func (r *Repository) Upsert(ctx context.Context, dealer *models.FFLDealer) (bool, error) {
	var existing models.FFLDealer
	err := r.db.WithContext(ctx).
		First(&existing, "license_number = ?", dealer.LicenseNumber).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "license_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_name", "license_name",
			"premise_street", "premise_city", "premise_state", "premise_zip",
			"mailing_street", "mailing_city", "mailing_state", "mailing_zip",
			"phone", "license_sequence", "updated_at",
		}),
	}).Create(dealer)
	if result.Error != nil {
		return false, result.Error
	}
	return created, nil
}

// IsNotFound reports whether the error is the driver's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
