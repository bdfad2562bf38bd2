package cart

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/catalog"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/types"
)

type fakeRepo struct {
	carts map[uuid.UUID]*models.CartRecord
	items map[uuid.UUID]*models.CartItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		carts: map[uuid.UUID]*models.CartRecord{},
		items: map[uuid.UUID]*models.CartItem{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) CartRepository { return f }

func (f *fakeRepo) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	f.carts[record.ID] = record
	return record, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CartRecord, error) {
	record, ok := f.carts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *record
	copied.Items = f.cartItems(id)
	return &copied, nil
}

func (f *fakeRepo) cartItems(cartID uuid.UUID) []models.CartItem {
	var items []models.CartItem
	for _, item := range f.items {
		if item.CartID == cartID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items
}

func (f *fakeRepo) FindActiveBySession(ctx context.Context, sessionID string) (*models.CartRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	record, ok := f.carts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Status = status
	return nil
}

func (f *fakeRepo) MarkCleared(ctx context.Context, id uuid.UUID) error {
	return f.UpdateStatus(ctx, id, enums.CartStatusCleared)
}

func (f *fakeRepo) InsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := f.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := f.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *fakeRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(f.items, itemID)
	return nil
}

func (f *fakeRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range f.items {
		if item.CartID == cartID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeRepo) NextItemPosition(ctx context.Context, cartID uuid.UUID) (int, error) {
	next := 0
	for _, item := range f.items {
		if item.CartID == cartID && item.Position >= next {
			next = item.Position + 1
		}
	}
	return next, nil
}

func (f *fakeRepo) DistinctCategoryIDs(ctx context.Context, cartID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, item := range f.items {
		if item.CartID != cartID {
			continue
		}
		if _, ok := seen[item.CategoryID]; ok {
			continue
		}
		seen[item.CategoryID] = struct{}{}
		ids = append(ids, item.CategoryID)
	}
	return ids, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeProducts struct {
	products map[uuid.UUID]*catalog.ProductDTO
}

func (f *fakeProducts) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type fakeFlags struct {
	fflByCategory map[uuid.UUID]bool
	failing       map[uuid.UUID]bool
	calls         int
}

func (f *fakeFlags) CategoryFlags(ctx context.Context, categoryID uuid.UUID) (*catalog.CategoryFlags, error) {
	f.calls++
	if f.failing[categoryID] {
		return nil, fmt.Errorf("category lookup unavailable")
	}
	return &catalog.CategoryFlags{FFLRequired: f.fflByCategory[categoryID]}, nil
}

func newTestService(t *testing.T, repo CartRepository, products *fakeProducts, flags *fakeFlags) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(repo, fakeTx{}, products, flags, logg)
	require.NoError(t, err)
	return svc
}

func seedCart(t *testing.T, repo *fakeRepo) uuid.UUID {
	t.Helper()
	record, err := repo.Create(context.Background(), &models.CartRecord{})
	require.NoError(t, err)
	return record.ID
}

func seedProduct(products *fakeProducts, categoryID uuid.UUID, kind enums.ProductKind, ffl bool) *catalog.ProductDTO {
	product := &catalog.ProductDTO{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       "Test Product",
		PriceCents: 129900,
		IsActive:   true,
		Category: &catalog.CategoryDTO{
			ID:          categoryID,
			Kind:        kind,
			FFLRequired: ffl,
		},
	}
	products.products[product.ID] = product
	return product
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	flags := &fakeFlags{fflByCategory: map[uuid.UUID]bool{}, failing: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	product := seedProduct(products, uuid.New(), enums.ProductKindAccessory, false)

	dto, err := svc.AddItem(ctx, cartID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)

	dto, err = svc.UpdateQuantity(ctx, cartID, dto.Items[0].ID, 0)
	require.NoError(t, err)
	require.Empty(t, dto.Items)
}

func TestUpdateQuantityPreservesOrdering(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	flags := &fakeFlags{fflByCategory: map[uuid.UUID]bool{}, failing: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	first := seedProduct(products, uuid.New(), enums.ProductKindAccessory, false)
	second := seedProduct(products, uuid.New(), enums.ProductKindMerch, false)
	third := seedProduct(products, uuid.New(), enums.ProductKindDuracoat, false)

	for _, p := range []*catalog.ProductDTO{first, second, third} {
		_, err := svc.AddItem(ctx, cartID, AddItemInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}

	dto, err := svc.GetCart(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 3)

	dto, err = svc.UpdateQuantity(ctx, cartID, dto.Items[1].ID, 5)
	require.NoError(t, err)
	require.Equal(t, second.ID, dto.Items[1].ProductID)
	require.Equal(t, 5, dto.Items[1].Quantity)
	require.Equal(t, first.ID, dto.Items[0].ProductID)
	require.Equal(t, third.ID, dto.Items[2].ProductID)
}

func TestAddItemRejectsMismatchedOptions(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	flags := &fakeFlags{fflByCategory: map[uuid.UUID]bool{}, failing: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	product := seedProduct(products, uuid.New(), enums.ProductKindMerch, false)

	_, err := svc.AddItem(ctx, cartID, AddItemInput{
		ProductID: product.ID,
		Quantity:  1,
		Options:   carnimoreOptions("6.5 Creedmoor"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAssessFFLEmptyCart(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	flags := &fakeFlags{fflByCategory: map[uuid.UUID]bool{}, failing: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	assessment, err := svc.AssessFFL(ctx, cartID)
	require.NoError(t, err)
	require.False(t, assessment.RequiresFFL)
	require.False(t, assessment.HasNonFFLItems)
	require.NoError(t, assessment.Warnings)
	require.Zero(t, flags.calls)
}

func TestAssessFFLMixedCart(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	rifleCategory := uuid.New()
	merchCategory := uuid.New()
	flags := &fakeFlags{
		fflByCategory: map[uuid.UUID]bool{rifleCategory: true, merchCategory: false},
		failing:       map[uuid.UUID]bool{},
	}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	rifle := seedProduct(products, rifleCategory, enums.ProductKindCarnimore, true)
	shirt := seedProduct(products, merchCategory, enums.ProductKindMerch, false)

	_, err := svc.AddItem(ctx, cartID, AddItemInput{
		ProductID: rifle.ID,
		Quantity:  1,
		Options:   carnimoreOptions(".308 Win"),
	})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cartID, AddItemInput{ProductID: shirt.ID, Quantity: 2})
	require.NoError(t, err)

	assessment, err := svc.AssessFFL(ctx, cartID)
	require.NoError(t, err)
	require.True(t, assessment.RequiresFFL)
	require.True(t, assessment.HasNonFFLItems)
	require.NoError(t, assessment.Warnings)
	// One lookup per distinct category, not per item.
	require.Equal(t, 2, flags.calls)
}

func TestAssessFFLLookupFailureIsLenient(t *testing.T) {
	repo := newFakeRepo()
	products := &fakeProducts{products: map[uuid.UUID]*catalog.ProductDTO{}}
	brokenCategory := uuid.New()
	flags := &fakeFlags{
		fflByCategory: map[uuid.UUID]bool{},
		failing:       map[uuid.UUID]bool{brokenCategory: true},
	}
	svc := newTestService(t, repo, products, flags)
	ctx := context.Background()

	cartID := seedCart(t, repo)
	rifle := seedProduct(products, brokenCategory, enums.ProductKindCarnimore, true)
	_, err := svc.AddItem(ctx, cartID, AddItemInput{
		ProductID: rifle.ID,
		Quantity:  1,
		Options:   carnimoreOptions(".308 Win"),
	})
	require.NoError(t, err)

	assessment, err := svc.AssessFFL(ctx, cartID)
	require.NoError(t, err)
	// Failed lookup degrades to non-FFL but is surfaced on Warnings.
	require.False(t, assessment.RequiresFFL)
	require.True(t, assessment.HasNonFFLItems)
	require.Error(t, assessment.Warnings)
}

func carnimoreOptions(caliber string) *types.ProductOptions {
	return &types.ProductOptions{
		Kind:      enums.ProductKindCarnimore,
		Carnimore: &types.CarnimoreOptions{Caliber: caliber},
	}
}
