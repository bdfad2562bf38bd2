package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/catalog"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error)
}

type categoryFlagsLoader interface {
	CategoryFlags(ctx context.Context, categoryID uuid.UUID) (*catalog.CategoryFlags, error)
}

// Service exposes cart persistence operations and the checkout predicates.
type Service interface {
	CreateCart(ctx context.Context, input CreateCartInput) (*CartDTO, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
	MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
	AssessFFL(ctx context.Context, cartID uuid.UUID) (*FFLAssessment, error)
	RequiresFFL(ctx context.Context, cartID uuid.UUID) (bool, error)
	HasNonFFLItems(ctx context.Context, cartID uuid.UUID) (bool, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	flags    categoryFlagsLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, flags categoryFlagsLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if flags == nil {
		return nil, fmt.Errorf("category flags loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		flags:    flags,
		logg:     logg,
	}, nil
}

// CreateCart opens an active cart for the session or user.
func (s *service) CreateCart(ctx context.Context, input CreateCartInput) (*CartDTO, error) {
	if input.UserID == nil && (input.SessionID == nil || *input.SessionID == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user id or session id is required")
	}
	record := &models.CartRecord{
		UserID:    input.UserID,
		SessionID: input.SessionID,
		Status:    enums.CartStatusActive,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return cartDTO(created), nil
}

// GetCart returns the cart with lines in insertion order.
func (s *service) GetCart(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return cartDTO(record), nil
}

// AddItem snapshots the product into a new cart line.
func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	record, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if input.Options != nil {
		if err := input.Options.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product options")
		}
		if product.Category != nil && input.Options.Kind != product.Category.Kind {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("options kind %q does not match product kind %q", input.Options.Kind, product.Category.Kind))
		}
	}

	position, err := s.repo.NextItemPosition(ctx, record.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "computing item position")
	}
	item := &models.CartItem{
		CartID:     record.ID,
		ProductID:  product.ID,
		CategoryID: product.CategoryID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Quantity:   input.Quantity,
		ImageURL:   product.ImageURL,
		Options:    input.Options,
		Position:   position,
	}
	if _, err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
	}
	return s.GetCart(ctx, cartID)
}

// UpdateQuantity sets the line quantity; zero or below removes the line.
func (s *service) UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	record, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, record.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
		}
		return s.GetCart(ctx, cartID)
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item quantity")
	}
	return s.GetCart(ctx, cartID)
}

// RemoveItem deletes the line from the cart.
func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, record.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.GetCart(ctx, cartID)
}

// Clear drops every line and marks the cart cleared.
func (s *service) Clear(ctx context.Context, cartID uuid.UUID) error {
	record, err := s.loadCart(ctx, cartID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart items")
		}
		if err := repo.MarkCleared(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking cart cleared")
		}
		return nil
	})
}

// MarkConverted flips the cart to converted inside the caller's transaction.
func (s *service) MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	return s.repo.WithTx(tx).UpdateStatus(ctx, cartID, enums.CartStatusConverted)
}

func (s *service) loadCart(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return record, nil
}

func (s *service) loadActiveCart(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart is %s", record.Status))
	}
	return record, nil
}

func cartDTO(record *models.CartRecord) *CartDTO {
	dto := &CartDTO{
		ID:        record.ID,
		Status:    record.Status,
		Items:     make([]CartItemDTO, 0, len(record.Items)),
		UpdatedAt: record.UpdatedAt,
	}
	for _, item := range record.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			Name:       item.Name,
			PriceCents: item.PriceCents,
			Quantity:   item.Quantity,
			ImageURL:   item.ImageURL,
			Options:    item.Options,
			Position:   item.Position,
		})
		dto.SubtotalCents += item.PriceCents * item.Quantity
		dto.ItemCount += item.Quantity
	}
	return dto
}
