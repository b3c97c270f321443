package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/pagination"
)

// Service is the order-history behavior consumed by controllers.
type Service interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPageDTO, error)
}

type orderRepository interface {
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	orders orderRepository
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	OrderRepo orderRepository
}

// NewService constructs an order-history service.
func NewService(params ServiceParams) (Service, error) {
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	return &service{orders: params.OrderRepo}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	// a number lookup must not leak another shopper's order
	if order.UserID != userID {
		return nil, pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPageDTO, error) {
	rows, nextCursor, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := &OrderPageDTO{
		Items:      make([]OrderDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for _, row := range rows {
		page.Items = append(page.Items, FromModel(row))
	}
	return page, nil
}
