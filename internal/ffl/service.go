package ffl

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/db/models"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/types"
)

var zipRe = regexp.MustCompile(`^\d{5}$`)

// Service exposes the dealer directory: customer search plus the admin
// import. Dealer snapshots attached to checkouts come from GetDealer.
type Service interface {
	Search(ctx context.Context, input SearchInput) (*DealerList, error)
	GetDealer(ctx context.Context, id uuid.UUID) (*DealerDTO, error)
	Import(ctx context.Context, batch []ImportInput) (*ImportResult, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the dealer directory service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dealer repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Search lists dealers in a five-digit zip, optionally narrowed by name.
func (s *service) Search(ctx context.Context, input SearchInput) (*DealerList, error) {
	input.Zip = strings.TrimSpace(input.Zip)
	if !zipRe.MatchString(input.Zip) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zip must be five digits")
	}
	rows, nextCursor, err := s.repo.Search(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching dealers")
	}
	list := &DealerList{Dealers: make([]DealerDTO, 0, len(rows)), NextCursor: nextCursor}
	for i := range rows {
		list.Dealers = append(list.Dealers, dealerDTO(&rows[i]))
	}
	return list, nil
}

// GetDealer loads one dealer for snapshotting into a checkout session.
func (s *service) GetDealer(ctx context.Context, id uuid.UUID) (*DealerDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading dealer")
	}
	dto := dealerDTO(record)
	return &dto, nil
}

// Import upserts a batch of dealer rows from the federal listing.
func (s *service) Import(ctx context.Context, batch []ImportInput) (*ImportResult, error) {
	if len(batch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "import batch is empty")
	}
	result := &ImportResult{}
	for _, row := range batch {
		dealer := row.Dealer
		if !dealer.Complete() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("dealer %q is missing a license number or business name", dealer.BusinessName))
		}
		if !zipRe.MatchString(strings.TrimSpace(dealer.PremiseZip)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("dealer %q has an invalid premise zip", dealer.BusinessName))
		}
		created, err := s.repo.Upsert(ctx, dealerRecord(dealer))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "importing dealer")
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"imported": result.Imported,
		"updated":  result.Updated,
	})
	s.logg.Info(logCtx, "dealer import finished")
	return result, nil
}

func dealerDTO(record *models.FFLDealer) DealerDTO {
	return DealerDTO{
		ID: record.ID,
		Dealer: types.FFLDealerInfo{
			LicenseNumber:   record.LicenseNumber,
			BusinessName:    record.BusinessName,
			LicenseName:     record.LicenseName,
			PremiseStreet:   record.PremiseStreet,
			PremiseCity:     record.PremiseCity,
			PremiseState:    record.PremiseState,
			PremiseZip:      record.PremiseZip,
			MailingStreet:   record.MailingStreet,
			MailingCity:     record.MailingCity,
			MailingState:    record.MailingState,
			MailingZip:      record.MailingZip,
			Phone:           record.Phone,
			LicenseSequence: record.LicenseSequence,
		},
	}
}

func dealerRecord(info types.FFLDealerInfo) *models.FFLDealer {
	return &models.FFLDealer{
		LicenseNumber:   strings.TrimSpace(info.LicenseNumber),
		BusinessName:    strings.TrimSpace(info.BusinessName),
		LicenseName:     strings.TrimSpace(info.LicenseName),
		PremiseStreet:   strings.TrimSpace(info.PremiseStreet),
		PremiseCity:     strings.TrimSpace(info.PremiseCity),
		PremiseState:    strings.ToUpper(strings.TrimSpace(info.PremiseState)),
		PremiseZip:      strings.TrimSpace(info.PremiseZip),
		MailingStreet:   info.MailingStreet,
		MailingCity:     info.MailingCity,
		MailingState:    info.MailingState,
		MailingZip:      info.MailingZip,
		Phone:           strings.TrimSpace(info.Phone),
		LicenseSequence: strings.TrimSpace(info.LicenseSequence),
	}
}
