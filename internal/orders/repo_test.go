package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/mayakapoor/aurelia-backend/pkg/db"
	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/pagination"
	"github.com/mayakapoor/aurelia-backend/pkg/types"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  subtotal_amount NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  shipping_amount NUMERIC NOT NULL DEFAULT 0,
  payment_charges_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL DEFAULT 'razorpay',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  order_status TEXT NOT NULL DEFAULT 'pending',
  shipping_address TEXT,
  payment_provider_order_id TEXT,
  payment_provider_payment_id TEXT,
  payment_provider_signature TEXT,
  tracking_number TEXT,
  courier_name TEXT,
  coupon_code TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_orders_order_number UNIQUE (order_number)
);`
	items := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  sku TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  original_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  selected_color TEXT,
  selected_size TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, number string, createdAt time.Time) *models.Order {
	t.Helper()

	productID := uuid.New()
	row := &models.Order{
		ID:                   uuid.New(),
		UserID:               userID,
		OrderNumber:          number,
		SubtotalAmount:       decimal.RequireFromString("2000"),
		TaxAmount:            decimal.RequireFromString("60"),
		PaymentChargesAmount: decimal.RequireFromString("47"),
		TotalAmount:          decimal.RequireFromString("2107"),
		PaymentMethod:        enums.PaymentMethodRazorpay,
		PaymentStatus:        enums.PaymentStatusPending,
		OrderStatus:          enums.OrderStatusPending,
		ShippingAddress: types.ShippingAddress{
			FullName:   "Priya Sharma",
			Phone:      "9876543210",
			Line1:      "14 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "IN",
		},
		CreatedAt: createdAt,
		Items: []models.OrderItem{
			{
				ID:            uuid.New(),
				ProductID:     &productID,
				Name:          "Gold Hoop Earrings",
				Slug:          "gold-hoop-earrings",
				SKU:           "AU-EAR-001",
				UnitPrice:     decimal.RequireFromString("1000"),
				OriginalPrice: decimal.RequireFromString("1000"),
				Quantity:      2,
			},
		},
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestInsertAndFindForUser(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	placed := newOrder(t, db, userID, "ORD-20260901-1001", time.Now())

	got, err := repo.FindForUser(context.Background(), userID, placed.ID)
	require.NoError(t, err)
	require.Equal(t, "ORD-20260901-1001", got.OrderNumber)
	require.Len(t, got.Items, 1)
	require.True(t, got.TotalAmount.Equal(decimal.RequireFromString("2107")))
	require.Equal(t, "Bengaluru", got.ShippingAddress.City)

	_, err = repo.FindForUser(context.Background(), uuid.New(), placed.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInsertDuplicateNumberIsUniqueViolation(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	newOrder(t, db, userID, "ORD-20260901-2002", time.Now())

	dup := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		OrderNumber:    "ORD-20260901-2002",
		SubtotalAmount: decimal.RequireFromString("500"),
		TotalAmount:    decimal.RequireFromString("527"),
	}
	err := repo.Insert(context.Background(), dup)
	require.Error(t, err)
	require.True(t, dbpkg.IsUniqueViolation(err, "ux_orders_order_number"))
}

func TestExistsByNumber(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewRepository(db)

	newOrder(t, db, uuid.New(), "ORD-20260901-3003", time.Now())

	taken, err := repo.ExistsByNumber(context.Background(), "ORD-20260901-3003")
	require.NoError(t, err)
	require.True(t, taken)

	free, err := repo.ExistsByNumber(context.Background(), "ORD-20260901-9999")
	require.NoError(t, err)
	require.False(t, free)
}

func TestListByUserCursorPagination(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		number := fmt.Sprintf("ORD-20260801-41%02d", i)
		newOrder(t, db, userID, number, base.Add(time.Duration(i)*time.Minute))
	}

	first, cursor, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, cursor)
	require.Equal(t, "ORD-20260801-4102", first[0].OrderNumber)

	second, nextCursor, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Empty(t, nextCursor)
	require.Equal(t, "ORD-20260801-4100", second[0].OrderNumber)
}

func TestMarkPaid(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	placed := newOrder(t, db, userID, "ORD-20260901-5005", time.Now())

	providerOrderID := "order_R4zptest123"
	paymentID := "pay_R4zptest456"
	paidAt := time.Date(2026, time.September, 1, 14, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPaid(context.Background(), placed.ID, &providerOrderID, &paymentID, nil, paidAt))

	got, err := repo.FindByID(context.Background(), placed.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(t, enums.OrderStatusProcessing, got.OrderStatus)
	require.NotNil(t, got.PaidAt)
	require.NotNil(t, got.PaymentProviderOrderID)
	require.Equal(t, providerOrderID, *got.PaymentProviderOrderID)
	require.Nil(t, got.PaymentProviderSignature)
}
