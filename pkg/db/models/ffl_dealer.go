package models

import (
	"time"

	"github.com/google/uuid"
)

// FFLDealer is a licensed dealer record imported from the federal listing.
type FFLDealer struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LicenseNumber   string    `gorm:"column:license_number;not null;uniqueIndex"`
	BusinessName    string    `gorm:"column:business_name;not null"`
	LicenseName     string    `gorm:"column:license_name;not null"`
	PremiseStreet   string    `gorm:"column:premise_street;not null"`
	PremiseCity     string    `gorm:"column:premise_city;not null"`
	PremiseState    string    `gorm:"column:premise_state;not null"`
	PremiseZip      string    `gorm:"column:premise_zip;not null;index"`
	MailingStreet   *string   `gorm:"column:mailing_street"`
	MailingCity     *string   `gorm:"column:mailing_city"`
	MailingState    *string   `gorm:"column:mailing_state"`
	MailingZip      *string   `gorm:"column:mailing_zip"`
	Phone           string    `gorm:"column:phone;not null"`
	LicenseSequence string    `gorm:"column:license_sequence;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
