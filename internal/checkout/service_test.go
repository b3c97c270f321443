package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/config"
	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox"
	"github.com/mayakapoor/aurelia-backend/pkg/razorpay"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCarts struct {
	cart *models.Cart
}

func (s *stubCarts) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
}

func (s *stubProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product)
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

type stubAddresses struct {
	byID       map[uuid.UUID]*models.Address
	defaultFor map[uuid.UUID]*models.Address
}

func (s *stubAddresses) Find(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	row, ok := s.byID[addressID]
	if !ok || row.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubAddresses) FindDefaultShipping(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	row, ok := s.defaultFor[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type stubOrders struct {
	inserted    []*models.Order
	failInserts int
	providerIDs map[uuid.UUID]string
}

func (s *stubOrders) InsertTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if s.failInserts > 0 {
		s.failInserts--
		return errors.New(`duplicate key value violates unique constraint "ux_orders_order_number"`)
	}
	order.ID = uuid.New()
	s.inserted = append(s.inserted, order)
	return nil
}

func (s *stubOrders) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	for _, order := range s.inserted {
		if order.ID == orderID && order.UserID == userID {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrders) SetProviderOrderID(ctx context.Context, orderID uuid.UUID, providerOrderID string) error {
	if s.providerIDs == nil {
		s.providerIDs = make(map[uuid.UUID]string)
	}
	s.providerIDs[orderID] = providerOrderID
	return nil
}

type stubNumbers struct {
	next int
}

func (s *stubNumbers) Next(ctx context.Context) string {
	s.next++
	return fmt.Sprintf("ORD-20260901-%04d", s.next)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) countByType(eventType enums.OutboxEventType) int {
	n := 0
	for _, event := range s.events {
		if event.EventType == eventType {
			n++
		}
	}
	return n
}

type stubGateway struct {
	err   error
	calls int
	last  int64
}

func (s *stubGateway) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*razorpay.GatewayOrder, error) {
	s.calls++
	s.last = amountMinor
	if s.err != nil {
		return nil, s.err
	}
	return &razorpay.GatewayOrder{
		ID:       "order_stub123",
		Amount:   amountMinor,
		Currency: "INR",
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (s *stubGateway) Currency() string { return "INR" }

type checkoutFixture struct {
	service   Service
	carts     *stubCarts
	products  *stubProducts
	addresses *stubAddresses
	orders    *stubOrders
	outbox    *stubOutbox
	gateway   *stubGateway
	userID    uuid.UUID
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	userID := uuid.New()
	fixture := &checkoutFixture{
		carts:     &stubCarts{},
		products:  &stubProducts{products: map[uuid.UUID]models.Product{}},
		addresses: &stubAddresses{byID: map[uuid.UUID]*models.Address{}, defaultFor: map[uuid.UUID]*models.Address{}},
		orders:    &stubOrders{},
		outbox:    &stubOutbox{},
		gateway:   &stubGateway{},
		userID:    userID,
	}

	svc, err := NewService(ServiceParams{
		Tx:          stubTx{},
		CartRepo:    fixture.carts,
		ProductRepo: fixture.products,
		AddressRepo: fixture.addresses,
		OrderRepo:   fixture.orders,
		Numbers:     &stubNumbers{},
		Outbox:      fixture.outbox,
		Gateway:     fixture.gateway,
		Checkout: config.CheckoutConfig{
			ShippingFlat:       "0",
			MinOrderMinorUnits: 100,
			OrderNumberRetries: 3,
		},
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	fixture.service = svc

	fixture.addresses.defaultFor[userID] = &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		FullName:   "Priya Sharma",
		Phone:      "9876543210",
		Line1:      "14 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "IN",
	}
	return fixture
}

func (f *checkoutFixture) addProductLine(t *testing.T, price string, quantity int) uuid.UUID {
	t.Helper()

	productID := uuid.New()
	f.products.products[productID] = models.Product{
		ID:       productID,
		Name:     "Gold Hoop Earrings",
		Slug:     "gold-hoop-earrings-" + productID.String()[:8],
		SKU:      "AU-" + productID.String()[:8],
		Price:    decimal.RequireFromString(price),
		IsActive: true,
		Stock:    10,
	}
	f.appendCartLine(productID, quantity)
	return productID
}

func (f *checkoutFixture) appendCartLine(productID uuid.UUID, quantity int) {
	if f.carts.cart == nil {
		f.carts.cart = &models.Cart{ID: uuid.New(), UserID: f.userID}
	}
	f.carts.cart.Items = append(f.carts.cart.Items, models.CartItem{
		ID:        uuid.New(),
		CartID:    f.carts.cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected a coded error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected reason details, got %#v", typed.Details())
	}
	reason, _ := details["reason"].(string)
	return reason
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 2)

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if len(f.orders.inserted) != 1 {
		t.Fatalf("expected 1 persisted order, got %d", len(f.orders.inserted))
	}
	order := f.orders.inserted[0]
	if !order.TotalAmount.Equal(decimal.RequireFromString("2107")) {
		t.Fatalf("total: got %s, want 2107", order.TotalAmount)
	}
	if !order.TaxAmount.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("tax: got %s, want 60", order.TaxAmount)
	}
	if !order.PaymentChargesAmount.Equal(decimal.RequireFromString("47")) {
		t.Fatalf("payment charges: got %s, want 47", order.PaymentChargesAmount)
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.OrderStatus != enums.OrderStatusPending {
		t.Fatalf("new order must start pending/pending, got %s/%s", order.PaymentStatus, order.OrderStatus)
	}
	if order.ShippingAddress.City != "Bengaluru" {
		t.Fatalf("shipping address not snapshotted: %+v", order.ShippingAddress)
	}

	if result.AmountMinor != 210700 {
		t.Fatalf("amount minor: got %d, want 210700", result.AmountMinor)
	}
	if result.Fallback {
		t.Fatal("healthy gateway must not report fallback")
	}
	if result.GatewayOrderID != "order_stub123" {
		t.Fatalf("gateway order id: got %q", result.GatewayOrderID)
	}
	if f.gateway.last != 210700 {
		t.Fatalf("gateway charged %d minor units, want 210700", f.gateway.last)
	}
	if f.orders.providerIDs[order.ID] != "order_stub123" {
		t.Fatal("gateway reference not stored on the order")
	}
	if f.outbox.countByType(enums.EventOrderCreated) != 1 {
		t.Fatal("expected one order_created outbox event")
	}
}

func TestCreateOrderDropsDanglingCartLines(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	f.addProductLine(t, "500", 1)
	f.appendCartLine(uuid.New(), 3) // product deleted after being carted

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if len(result.Order.Items) != 2 {
		t.Fatalf("expected dangling line dropped, got %d items", len(result.Order.Items))
	}
	if !result.Order.Subtotal.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("subtotal: got %s, want 1500", result.Order.Subtotal)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if reasonOf(t, err) != "EMPTY_CART" {
		t.Fatalf("expected EMPTY_CART, got %v", err)
	}
}

func TestCreateOrderAllLinesDanglingIsEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.appendCartLine(uuid.New(), 1)

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if reasonOf(t, err) != "EMPTY_CART" {
		t.Fatalf("expected EMPTY_CART, got %v", err)
	}
}

func TestCreateOrderNoAddress(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	delete(f.addresses.defaultFor, f.userID)

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if reasonOf(t, err) != "NO_ADDRESS" {
		t.Fatalf("expected NO_ADDRESS, got %v", err)
	}
}

func TestCreateOrderExplicitAddressMustBelongToUser(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)

	foreign := &models.Address{ID: uuid.New(), UserID: uuid.New()}
	f.addresses.byID[foreign.ID] = foreign

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{AddressID: &foreign.ID})
	if reasonOf(t, err) != "NO_ADDRESS" {
		t.Fatalf("expected NO_ADDRESS for foreign address, got %v", err)
	}
}

func TestCreateOrderBelowMinimumRejectedBeforePersisting(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "0.50", 1)

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if reasonOf(t, err) != "BELOW_MINIMUM_AMOUNT" {
		t.Fatalf("expected BELOW_MINIMUM_AMOUNT, got %v", err)
	}
	if len(f.orders.inserted) != 0 {
		t.Fatal("sub-minimum order must not be persisted")
	}
	if f.gateway.calls != 0 {
		t.Fatal("gateway must not be called for a sub-minimum order")
	}
}

func TestCreateOrderExactMinimumAccepted(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1.00", 1)

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if result.AmountMinor != 100 {
		t.Fatalf("amount minor: got %d, want 100", result.AmountMinor)
	}
}

func TestCreateOrderGatewayFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 2)
	f.gateway.err = errors.New("connection refused")

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("gateway outage must not fail checkout: %v", err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback flag when the gateway is down")
	}
	if result.GatewayOrderID != "" {
		t.Fatalf("unexpected gateway order id %q", result.GatewayOrderID)
	}
	if len(f.orders.inserted) != 1 {
		t.Fatal("local order must survive the gateway outage")
	}
	if f.outbox.countByType(enums.EventOrderGatewayOffline) != 1 {
		t.Fatal("expected one order_gateway_offline outbox event")
	}
}

func TestCreateOrderRetriesOnNumberCollision(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	f.orders.failInserts = 2

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	// two collisions burned two numbers, the third stuck
	if result.Order.OrderNumber != "ORD-20260901-0003" {
		t.Fatalf("order number: got %q, want ORD-20260901-0003", result.Order.OrderNumber)
	}
}

func TestCreateOrderNumberRetriesExhausted(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	f.orders.failInserts = 10

	_, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error after exhausting retries, got %v", err)
	}
}

func TestCreateOrderCashOnDeliverySkipsGateway(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "0.50", 1)

	result, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{PaymentMethod: "cod"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if f.gateway.calls != 0 {
		t.Fatal("cod checkout must not touch the gateway")
	}
	if result.Fallback {
		t.Fatal("cod checkout is not a gateway fallback")
	}
}

func TestCreateGatewayOrderUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateGatewayOrder(context.Background(), f.userID, uuid.New())
	if reasonOf(t, err) != "ORDER_NOT_FOUND" {
		t.Fatalf("expected ORDER_NOT_FOUND, got %v", err)
	}
}

func TestCreateGatewayOrderAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	if _, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	order := f.orders.inserted[0]
	order.PaymentStatus = enums.PaymentStatusPaid

	_, err := f.service.CreateGatewayOrder(context.Background(), f.userID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for a paid order, got %v", err)
	}
}

func TestCreateGatewayOrderOutageIsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.addProductLine(t, "1000", 1)
	f.gateway.err = errors.New("connection refused")

	create, err := f.service.CreateOrder(context.Background(), f.userID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = f.service.CreateGatewayOrder(context.Background(), f.userID, create.Order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	details, _ := typed.Details().(map[string]any)
	if fallback, _ := details["fallback"].(bool); !fallback {
		t.Fatalf("expected fallback detail, got %#v", typed.Details())
	}
}
