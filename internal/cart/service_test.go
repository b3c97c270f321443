package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
)

type stubCartRepo struct {
	cart *models.Cart
}

func (s *stubCartRepo) GetOrCreate(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil {
		s.cart = &models.Cart{ID: uuid.New(), UserID: userID, Items: []models.CartItem{}}
	}
	return s.copy(), nil
}

func (s *stubCartRepo) FindByUser(_ context.Context, _ uuid.UUID) (*models.Cart, error) {
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.copy(), nil
}

func (s *stubCartRepo) InsertItem(_ context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	s.cart.Items = append(s.cart.Items, *item)
	return nil
}

func (s *stubCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) DeleteItem(_ context.Context, _, itemID uuid.UUID) error {
	kept := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.cart.Items = kept
	return nil
}

func (s *stubCartRepo) ClearItems(_ context.Context, _ uuid.UUID) error {
	s.cart.Items = nil
	return nil
}

func (s *stubCartRepo) copy() *models.Cart {
	clone := *s.cart
	clone.Items = append([]models.CartItem(nil), s.cart.Items...)
	return &clone
}

type stubProductFinder struct {
	products map[uuid.UUID]models.Product
}

func (s *stubProductFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (s *stubProductFinder) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func testProduct(name, priceStr string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     name,
		SKU:      "AUR-" + name,
		Price:    price(priceStr),
		Stock:    10,
		IsActive: true,
	}
}

func buildService(t *testing.T, products ...models.Product) (Service, *stubCartRepo, *stubProductFinder) {
	t.Helper()
	finder := &stubProductFinder{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		finder.products[p.ID] = p
	}
	repo := &stubCartRepo{}
	svc, err := NewService(ServiceParams{CartRepo: repo, ProductRepo: finder})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, finder
}

func TestAddItemMergesSameVariant(t *testing.T) {
	product := testProduct("gold-hoops", "1500.00")
	svc, _, _ := buildService(t, product)
	userID := uuid.New()
	color := "rose"

	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 1, SelectedColor: &color,
	})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(dto.Items))
	}

	dto, err = svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 2, SelectedColor: &color,
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("same variant should merge, got %d lines", len(dto.Items))
	}
	if dto.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", dto.Items[0].Quantity)
	}
}

func TestAddItemDifferentVariantNewLine(t *testing.T) {
	product := testProduct("gold-hoops", "1500.00")
	svc, _, _ := buildService(t, product)
	userID := uuid.New()
	rose, silver := "rose", "silver"

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 1, SelectedColor: &rose,
	}); err != nil {
		t.Fatalf("add rose: %v", err)
	}
	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 1, SelectedColor: &silver,
	})
	if err != nil {
		t.Fatalf("add silver: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("different variants should not merge, got %d lines", len(dto.Items))
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _, _ := buildService(t)
	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemInactiveProduct(t *testing.T) {
	product := testProduct("retired-ring", "900.00")
	product.IsActive = false
	svc, _, _ := buildService(t, product)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: product.ID, Quantity: 1})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	product := testProduct("pearl-studs", "2200.00")
	svc, _, _ := buildService(t, product)
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	dto, err = svc.UpdateItem(context.Background(), userID, dto.Items[0].ID, UpdateItemRequest{Quantity: 0})
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(dto.Items))
	}
}

func TestCartSubtotalUsesEffectivePrice(t *testing.T) {
	product := testProduct("silver-chain", "1000.00")
	discount := price("800.00")
	product.DiscountPrice = &discount
	svc, _, _ := buildService(t, product)
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !dto.Subtotal.Equal(price("2400.00")) {
		t.Fatalf("expected subtotal 2400.00, got %s", dto.Subtotal)
	}
	if !dto.Items[0].UnitPrice.Equal(discount) {
		t.Fatalf("expected discounted unit price, got %s", dto.Items[0].UnitPrice)
	}
}

func TestCartHidesDanglingProductLines(t *testing.T) {
	product := testProduct("vanishing-bangle", "500.00")
	svc, _, finder := buildService(t, product)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	delete(finder.products, product.ID)

	dto, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("dangling line should be hidden, got %d", len(dto.Items))
	}
	if !dto.Subtotal.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", dto.Subtotal)
	}
}

func TestClearMissingCartIsNoop(t *testing.T) {
	svc, _, _ := buildService(t)
	if err := svc.Clear(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clear on missing cart should be a noop: %v", err)
	}
}
