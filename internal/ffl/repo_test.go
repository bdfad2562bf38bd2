package ffl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/pagination"
)

func setupDealerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	dealers := `
CREATE TABLE IF NOT EXISTS ffl_dealers (
  id TEXT PRIMARY KEY,
  license_number TEXT NOT NULL UNIQUE,
  business_name TEXT NOT NULL,
  license_name TEXT NOT NULL,
  premise_street TEXT NOT NULL,
  premise_city TEXT NOT NULL,
  premise_state TEXT NOT NULL,
  premise_zip TEXT NOT NULL,
  mailing_street TEXT,
  mailing_city TEXT,
  mailing_state TEXT,
  mailing_zip TEXT,
  phone TEXT NOT NULL,
  license_sequence TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(dealers).Error)
	return db
}

func newDealer(t *testing.T, db *gorm.DB, license, business, zip string, created time.Time) *models.FFLDealer {
	t.Helper()

	dealer := &models.FFLDealer{
		ID:              uuid.New(),
		LicenseNumber:   license,
		BusinessName:    business,
		LicenseName:     business + " LLC",
		PremiseStreet:   "500 Range Rd",
		PremiseCity:     "Prescott",
		PremiseState:    "AZ",
		PremiseZip:      zip,
		Phone:           "928-555-0100",
		LicenseSequence: license[len(license)-5:],
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(dealer).Error)
	return dealer
}

func TestRepositorySearch_zipAndNameFragment(t *testing.T) {
	db := setupDealerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	newDealer(t, db, "9-86-013-01-1A-00001", "High Desert Arms", "86301", now.Add(-time.Hour))
	newDealer(t, db, "9-86-013-01-1A-00002", "Granite Mountain Firearms", "86301", now)
	newDealer(t, db, "9-85-013-01-1A-00003", "Valley Pawn", "85001", now)

	rows, next, err := repo.Search(context.Background(), SearchInput{
		Zip:        "86301",
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, next)
	assert.Equal(t, "Granite Mountain Firearms", rows[0].BusinessName)
	assert.Equal(t, "High Desert Arms", rows[1].BusinessName)

	rows, _, err = repo.Search(context.Background(), SearchInput{
		Zip:        "86301",
		Name:       "granite",
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Granite Mountain Firearms", rows[0].BusinessName)
}

func TestRepositorySearch_pagination(t *testing.T) {
	db := setupDealerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	newDealer(t, db, "9-86-013-01-1A-00011", "Oldest Trading Post", "86301", now.Add(-2*time.Hour))
	newDealer(t, db, "9-86-013-01-1A-00012", "Middle Outfitters", "86301", now.Add(-time.Hour))
	newDealer(t, db, "9-86-013-01-1A-00013", "Newest Gun Works", "86301", now)

	first, next, err := repo.Search(context.Background(), SearchInput{
		Zip:        "86301",
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next)
	assert.Equal(t, "Newest Gun Works", first[0].BusinessName)

	second, last, err := repo.Search(context.Background(), SearchInput{
		Zip:        "86301",
		Pagination: pagination.Params{Limit: 2, Cursor: *next},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, last)
	assert.Equal(t, "Oldest Trading Post", second[0].BusinessName)
}

func TestRepositoryUpsert_refreshesExistingLicense(t *testing.T) {
	db := setupDealerTestDB(t)
	repo := NewRepository(db)

	original := &models.FFLDealer{
		ID:              uuid.New(),
		LicenseNumber:   "9-86-013-01-1A-00021",
		BusinessName:    "Before Rename",
		LicenseName:     "Before Rename LLC",
		PremiseStreet:   "1 Old St",
		PremiseCity:     "Prescott",
		PremiseState:    "AZ",
		PremiseZip:      "86301",
		Phone:           "928-555-0101",
		LicenseSequence: "00021",
	}
	created, err := repo.Upsert(context.Background(), original)
	require.NoError(t, err)
	assert.True(t, created)

	renamed := &models.FFLDealer{
		ID:              uuid.New(),
		LicenseNumber:   "9-86-013-01-1A-00021",
		BusinessName:    "After Rename",
		LicenseName:     "After Rename LLC",
		PremiseStreet:   "2 New St",
		PremiseCity:     "Prescott",
		PremiseState:    "AZ",
		PremiseZip:      "86305",
		Phone:           "928-555-0102",
		LicenseSequence: "00021",
	}
	created, err = repo.Upsert(context.Background(), renamed)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.FFLDealer{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored models.FFLDealer
	require.NoError(t, db.First(&stored, "license_number = ?", "9-86-013-01-1A-00021").Error)
	assert.Equal(t, "After Rename", stored.BusinessName)
	assert.Equal(t, "86305", stored.PremiseZip)
	assert.Equal(t, original.ID, stored.ID)
}

func TestRepositoryFindByID_missingDealer(t *testing.T) {
	db := setupDealerTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
