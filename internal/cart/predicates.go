package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const flagLookupConcurrency = 8

// AssessFFL computes both transfer predicates in one pass: one category-flag
// lookup per distinct cart category, fanned out concurrently and OR-reduced.
// A failed lookup degrades that category to "not FFL-required"; the failure
// is logged and combined onto Warnings rather than failing the assessment.
func (s *service) AssessFFL(ctx context.Context, cartID uuid.UUID) (*FFLAssessment, error) {
	record, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	assessment := &FFLAssessment{}
	if len(record.Items) == 0 {
		return assessment, nil
	}

	categoryIDs := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]struct{}{}
	for _, item := range record.Items {
		if _, ok := seen[item.CategoryID]; ok {
			continue
		}
		seen[item.CategoryID] = struct{}{}
		categoryIDs = append(categoryIDs, item.CategoryID)
	}

	var mu sync.Mutex
	flagsByCategory := make(map[uuid.UUID]bool, len(categoryIDs))
	var warnings error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(flagLookupConcurrency)
	for _, categoryID := range categoryIDs {
		group.Go(func() error {
			flags, err := s.flags.CategoryFlags(groupCtx, categoryID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logCtx := s.logg.WithFields(groupCtx, map[string]any{"category_id": categoryID.String()})
				s.logg.Warn(logCtx, "category flag lookup failed, treating as non-FFL")
				flagsByCategory[categoryID] = false
				warnings = multierr.Append(warnings, err)
				return nil
			}
			flagsByCategory[categoryID] = flags.FFLRequired
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, item := range record.Items {
		if flagsByCategory[item.CategoryID] {
			assessment.RequiresFFL = true
		} else {
			assessment.HasNonFFLItems = true
		}
	}
	assessment.Warnings = warnings
	return assessment, nil
}

// RequiresFFL reports whether any cart item needs a licensed dealer transfer.
// An empty cart returns false.
func (s *service) RequiresFFL(ctx context.Context, cartID uuid.UUID) (bool, error) {
	assessment, err := s.AssessFFL(ctx, cartID)
	if err != nil {
		return false, err
	}
	return assessment.RequiresFFL, nil
}

// HasNonFFLItems reports whether any cart item ships directly to the buyer.
// An empty cart returns false.
func (s *service) HasNonFFLItems(ctx context.Context, cartID uuid.UUID) (bool, error) {
	assessment, err := s.AssessFFL(ctx, cartID)
	if err != nil {
		return false, err
	}
	return assessment.HasNonFFLItems, nil
}
