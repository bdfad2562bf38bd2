package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

// Service exposes order reads plus the pending-order creation used at payment
// submission. Terminal transitions go through the resolution watcher.
type Service interface {
	CreateOrder(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*StatusDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the order service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateOrder persists the client-minted pending order with its line items.
func (s *service) CreateOrder(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*OrderDTO, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	record := &models.Order{
		ID:              input.ID,
		UserID:          input.UserID,
		CartID:          input.CartID,
		Email:           input.Email,
		Phone:           input.Phone,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalCents:      input.TotalCents,
		Contact:         input.Contact,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		FFLDealer:       input.FFLDealer,
	}
	for _, item := range input.Items {
		record.Items = append(record.Items, models.OrderLineItem{
			OrderID:        input.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			Options:        item.Options,
		})
	}

	created, err := s.repo.WithTx(tx).Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	s.logg.Info(logCtx, "pending order created")
	return orderDTO(created), nil
}

// GetOrder loads the order or returns a distinguished not-found.
func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return orderDTO(record), nil
}

// GetStatus is the polling read. An order row not yet visible reads as
// pending so a client polling right after submission never sees a hard
// not-found.
func (s *service) GetStatus(ctx context.Context, id uuid.UUID) (*StatusDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return &StatusDTO{
				OrderID:       id,
				PaymentStatus: enums.PaymentStatusPending,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order status")
	}
	return &StatusDTO{
		OrderID:           record.ID,
		PaymentStatus:     record.PaymentStatus,
		ResponseMessage:   record.ResponseMessage,
		ProcessorResponse: record.ProcessorResponse,
		TotalAmount:       amountFromCents(record.TotalCents),
	}, nil
}

// ListOrders returns one admin page of orders.
func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	rows, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: nextCursor}
	for i := range rows {
		list.Orders = append(list.Orders, *orderDTO(&rows[i]))
	}
	return list, nil
}

func orderDTO(record *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                record.ID,
		UserID:            record.UserID,
		CartID:            record.CartID,
		Email:             record.Email,
		Phone:             record.Phone,
		PaymentStatus:     record.PaymentStatus,
		ResponseMessage:   record.ResponseMessage,
		ProcessorResponse: record.ProcessorResponse,
		TotalCents:        record.TotalCents,
		TotalAmount:       amountFromCents(record.TotalCents),
		Contact:           record.Contact,
		BillingAddress:    record.BillingAddress,
		ShippingAddress:   record.ShippingAddress,
		FFLDealer:         record.FFLDealer,
		ResolvedAt:        record.ResolvedAt,
		CreatedAt:         record.CreatedAt,
	}
	for _, item := range record.Items {
		dto.Items = append(dto.Items, OrderLineItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			Options:        item.Options,
		})
	}
	return dto
}

func amountFromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
}
