package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/internal/orders"
	"github.com/mayakapoor/aurelia-backend/internal/pricing"
	"github.com/mayakapoor/aurelia-backend/pkg/config"
	dbpkg "github.com/mayakapoor/aurelia-backend/pkg/db"
	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/metrics"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox/payloads"
	"github.com/mayakapoor/aurelia-backend/pkg/razorpay"
)

// Service runs the checkout pipeline: cart to persisted order to gateway order.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error)
	CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResult, error)
}

type cartLoader interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type productFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type addressFinder interface {
	Find(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	FindDefaultShipping(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

type orderStore interface {
	InsertTx(ctx context.Context, tx *gorm.DB, order *models.Order) error
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	SetProviderOrderID(ctx context.Context, orderID uuid.UUID, providerOrderID string) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*razorpay.GatewayOrder, error)
	Currency() string
}

type numberAllocator interface {
	Next(ctx context.Context) string
}

type service struct {
	tx        transactor
	carts     cartLoader
	products  productFinder
	addresses addressFinder
	orders    orderStore
	numbers   numberAllocator
	outbox    outboxEmitter
	gateway   paymentGateway
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger

	shippingFlat   decimal.Decimal
	minOrderMinor  int64
	insertAttempts int
	legacyDiscount bool
}

// ServiceParams bundles the checkout service dependencies. Gateway may be nil
// when credentials are absent; every order then falls back to offline payment.
type ServiceParams struct {
	Tx          transactor
	CartRepo    cartLoader
	ProductRepo productFinder
	AddressRepo addressFinder
	OrderRepo   orderStore
	Numbers     numberAllocator
	Outbox      outboxEmitter
	Gateway     paymentGateway
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger

	Checkout       config.CheckoutConfig
	LegacyDiscount bool
}

// NewService constructs the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.AddressRepo == nil {
		return nil, fmt.Errorf("address repository is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Numbers == nil {
		return nil, fmt.Errorf("number allocator is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}

	shippingFlat := decimal.Zero
	if params.Checkout.ShippingFlat != "" {
		parsed, err := decimal.NewFromString(params.Checkout.ShippingFlat)
		if err != nil {
			return nil, fmt.Errorf("parsing shipping flat %q: %w", params.Checkout.ShippingFlat, err)
		}
		shippingFlat = parsed
	}

	attempts := params.Checkout.OrderNumberRetries
	if attempts < 1 {
		attempts = 1
	}

	return &service{
		tx:             params.Tx,
		carts:          params.CartRepo,
		products:       params.ProductRepo,
		addresses:      params.AddressRepo,
		orders:         params.OrderRepo,
		numbers:        params.Numbers,
		outbox:         params.Outbox,
		gateway:        params.Gateway,
		metrics:        params.Metrics,
		logg:           params.Logger,
		shippingFlat:   shippingFlat,
		minOrderMinor:  params.Checkout.MinOrderMinorUnits,
		insertAttempts: attempts,
		legacyDiscount: params.LegacyDiscount,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	started := time.Now()

	method := enums.PaymentMethodRazorpay
	if req.PaymentMethod != "" {
		parsed, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
		}
		method = parsed
	}

	items, pricedLines, err := s.snapshotCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	shipTo, err := s.resolveAddress(ctx, userID, req.AddressID)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(pricedLines, pricing.Options{
		ShippingFlat:   s.shippingFlat,
		LegacyDiscount: s.legacyDiscount,
	})

	// the gateway rejects sub-minimum amounts, refuse before persisting
	// anything rather than stranding an unpayable order
	if method == enums.PaymentMethodRazorpay && totals.MinorUnits() < s.minOrderMinor {
		return nil, pkgerrors.Reason(pkgerrors.CodeValidation, "BELOW_MINIMUM_AMOUNT",
			fmt.Sprintf("order total must be at least %d minor units", s.minOrderMinor))
	}

	order, err := s.persistOrder(ctx, userID, method, req.CouponCode, items, totals, shipTo)
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(string(method))
	s.metrics.ObserveStage("create_order", time.Since(started))

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order created")
	}

	result := &CreateOrderResult{
		Order:       orders.FromModel(*order),
		AmountMinor: totals.MinorUnits(),
	}

	if method != enums.PaymentMethodRazorpay {
		return result, nil
	}

	gatewayOrder, gwErr := s.openGatewayOrder(ctx, order, totals.MinorUnits())
	if gwErr != nil {
		// the local order survives, payment gets collected out of band
		result.Fallback = true
		if s.logg != nil {
			s.logg.Error(logCtx, "gateway order creation failed, falling back", gwErr)
		}
		return result, nil
	}
	result.GatewayOrderID = gatewayOrder.ID
	result.Currency = gatewayOrder.Currency
	return result, nil
}

func (s *service) CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResult, error) {
	order, err := s.orders.FindForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	amountMinor := pricing.Totals{Total: order.TotalAmount}.MinorUnits()
	if amountMinor < s.minOrderMinor {
		return nil, pkgerrors.Reason(pkgerrors.CodeValidation, "BELOW_MINIMUM_AMOUNT",
			fmt.Sprintf("order total must be at least %d minor units", s.minOrderMinor))
	}

	gatewayOrder, err := s.openGatewayOrder(ctx, order, amountMinor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable").
			WithDetails(map[string]any{"reason": "GATEWAY_UNAVAILABLE", "fallback": true})
	}

	return &GatewayOrderResult{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         order.TotalAmount,
		AmountMinor:    amountMinor,
		Currency:       gatewayOrder.Currency,
	}, nil
}

// snapshotCart loads the cart and freezes its lines into order item snapshots.
// Lines whose product vanished since being added are dropped without failing
// the checkout.
func (s *service) snapshotCart(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, []pricing.Line, error) {
	emptyCart := pkgerrors.Reason(pkgerrors.CodeValidation, "EMPTY_CART", "cart is empty")

	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, emptyCart
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, nil, emptyCart
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product, ok := products[cartItem.ProductID]
		if !ok {
			continue
		}
		productID := product.ID
		items = append(items, models.OrderItem{
			ProductID:     &productID,
			Name:          product.Name,
			Slug:          product.Slug,
			SKU:           product.SKU,
			UnitPrice:     product.EffectivePrice(),
			OriginalPrice: product.Price,
			Quantity:      cartItem.Quantity,
			ImageURL:      product.FeaturedImage(),
			SelectedColor: cartItem.SelectedColor,
			SelectedSize:  cartItem.SelectedSize,
		})
		lines = append(lines, pricing.Line{
			UnitPrice:     product.EffectivePrice(),
			OriginalPrice: product.Price,
			Quantity:      cartItem.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, nil, emptyCart
	}
	return items, lines, nil
}

// resolveAddress picks the explicit address when given, otherwise the user's
// default shipping address.
func (s *service) resolveAddress(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*models.Address, error) {
	noAddress := pkgerrors.Reason(pkgerrors.CodeValidation, "NO_ADDRESS", "no shipping address available")

	if addressID != nil {
		row, err := s.addresses.Find(ctx, userID, *addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, noAddress
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
		}
		return row, nil
	}

	row, err := s.addresses.FindDefaultShipping(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noAddress
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default address")
	}
	return row, nil
}

// persistOrder allocates a number and inserts the order inside a transaction
// together with its outbox event, retrying with a fresh number if a
// concurrent checkout claimed the same one.
func (s *service) persistOrder(
	ctx context.Context,
	userID uuid.UUID,
	method enums.PaymentMethod,
	couponCode *string,
	items []models.OrderItem,
	totals pricing.Totals,
	shipTo *models.Address,
) (*models.Order, error) {
	var lastErr error

	for attempt := 0; attempt < s.insertAttempts; attempt++ {
		order := &models.Order{
			UserID:               userID,
			OrderNumber:          s.numbers.Next(ctx),
			Items:                items,
			SubtotalAmount:       totals.Subtotal,
			DiscountAmount:       totals.Discount,
			TaxAmount:            totals.Tax,
			ShippingAmount:       totals.Shipping,
			PaymentChargesAmount: totals.PaymentCharges,
			TotalAmount:          totals.Total,
			PaymentMethod:        method,
			PaymentStatus:        enums.PaymentStatusPending,
			OrderStatus:          enums.OrderStatusPending,
			ShippingAddress:      shipTo.Snapshot(),
			CouponCode:           couponCode,
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.InsertTx(ctx, tx, order); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: userID},
				Data: payloads.OrderCreatedEvent{
					OrderID:       order.ID,
					OrderNumber:   order.OrderNumber,
					UserID:        userID,
					Total:         totals.Total,
					PaymentMethod: string(method),
					ItemCount:     len(items),
				},
			})
		})
		if err == nil {
			return order, nil
		}
		if !dbpkg.IsUniqueViolation(err, "ux_orders_order_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
		}
		lastErr = err
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "order number allocation exhausted")
}

// openGatewayOrder registers the order with the payment gateway and stores
// the returned reference. A nil gateway means credentials were never set.
func (s *service) openGatewayOrder(ctx context.Context, order *models.Order, amountMinor int64) (*razorpay.GatewayOrder, error) {
	if s.gateway == nil {
		s.recordGatewayOffline(ctx, order, "gateway not configured")
		return nil, errors.New("payment gateway not configured")
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, order.OrderNumber)
	if err != nil {
		s.recordGatewayOffline(ctx, order, err.Error())
		return nil, err
	}

	if err := s.orders.SetProviderOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
		// the reference arrives again at confirmation time, log and move on
		if s.logg != nil {
			s.logg.Error(ctx, "storing gateway order reference", err)
		}
	}
	return gatewayOrder, nil
}

func (s *service) recordGatewayOffline(ctx context.Context, order *models.Order, cause string) {
	s.metrics.IncGatewayFailure()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderGatewayOffline,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID},
			Data: payloads.OrderGatewayOfflineEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				GatewayErr:  cause,
			},
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "recording gateway offline event", err)
	}
}
