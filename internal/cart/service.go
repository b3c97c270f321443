package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
)

// Service is the cart behavior consumed by controllers and checkout.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	carts    cartRepository
	products productFinder
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	CartRepo    cartRepository
	ProductRepo productFinder
}

// NewService constructs a cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{carts: params.CartRepo, products: params.ProductRepo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.toDTO(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	// Same product+variant merges into the existing line.
	for _, item := range cart.Items {
		if item.SameVariant(req.ProductID, req.SelectedColor, req.SelectedSize) {
			if err := s.carts.UpdateItemQuantity(ctx, item.ID, item.Quantity+req.Quantity); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
			}
			return s.reload(ctx, userID)
		}
	}

	line := models.CartItem{
		CartID:        cart.ID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		SelectedColor: req.SelectedColor,
		SelectedSize:  req.SelectedSize,
	}
	if err := s.carts.InsertItem(ctx, &line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart line")
	}
	return s.reload(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*CartDTO, error) {
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	cart, item, err := s.findLine(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if req.Quantity == 0 {
		if err := s.carts.DeleteItem(ctx, cart.ID, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
	} else {
		if err := s.carts.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
	}
	return s.reload(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, item, err := s.findLine(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, cart.ID, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	return s.reload(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) findLine(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return cart, &cart.Items[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return s.toDTO(ctx, cart)
}

func (s *service) toDTO(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	dto := &CartDTO{
		ID:       cart.ID,
		Items:    make([]LineDTO, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
	}
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			// product deleted since it was added, hide the stale line
			continue
		}
		line := lineFromModels(item, product)
		dto.Items = append(dto.Items, line)
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
	}
	return dto, nil
}
