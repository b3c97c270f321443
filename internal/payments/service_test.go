package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

type stubOrders struct {
	order     *models.Order
	markCalls int
}

func (s *stubOrders) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID || s.order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrders) MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, providerOrderID, paymentID, signature *string, paidAt time.Time) error {
	s.markCalls++
	s.order.PaymentStatus = enums.PaymentStatusPaid
	s.order.OrderStatus = enums.OrderStatusProcessing
	s.order.PaidAt = &paidAt
	if providerOrderID != nil {
		s.order.PaymentProviderOrderID = providerOrderID
	}
	if paymentID != nil {
		s.order.PaymentProviderPaymentID = paymentID
	}
	return nil
}

type stubCartClearer struct {
	calls int
}

func (s *stubCartClearer) Clear(ctx context.Context, userID uuid.UUID) error {
	s.calls++
	return nil
}

type stubOutbox struct {
	emitted map[enums.OutboxEventType]int
}

func (s *stubOutbox) record(eventType enums.OutboxEventType) {
	if s.emitted == nil {
		s.emitted = make(map[enums.OutboxEventType]int)
	}
	s.emitted[eventType]++
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.record(event.EventType)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.emitted[event.EventType] > 0 {
		return nil
	}
	s.record(event.EventType)
	return nil
}

type paymentsFixture struct {
	service Service
	orders  *stubOrders
	carts   *stubCartClearer
	outbox  *stubOutbox
	userID  uuid.UUID
}

const testKeySecret = "test_secret_key"

type hmacVerifier struct{}

func (hmacVerifier) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(testKeySecret, gatewayOrderID, paymentID, signature)
}

func signPayload(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentsFixture(t *testing.T, verifier signatureVerifier) *paymentsFixture {
	t.Helper()

	userID := uuid.New()
	providerOrderID := "order_R4zp123"
	fixture := &paymentsFixture{
		orders: &stubOrders{order: &models.Order{
			ID:                     uuid.New(),
			UserID:                 userID,
			OrderNumber:            "ORD-20260901-0042",
			TotalAmount:            decimal.RequireFromString("2107"),
			PaymentMethod:          enums.PaymentMethodRazorpay,
			PaymentStatus:          enums.PaymentStatusPending,
			OrderStatus:            enums.OrderStatusPending,
			PaymentProviderOrderID: &providerOrderID,
		}},
		carts:  &stubCartClearer{},
		outbox: &stubOutbox{},
		userID: userID,
	}

	svc, err := NewService(ServiceParams{
		Tx:        stubTx{},
		OrderRepo: fixture.orders,
		CartSvc:   fixture.carts,
		Outbox:    fixture.outbox,
		Verifier:  verifier,
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	fixture.service = svc
	return fixture
}

func TestConfirmHappyPath(t *testing.T) {
	f := newPaymentsFixture(t, nil)

	result, err := f.service.Confirm(context.Background(), f.userID, ConfirmRequest{
		OrderID:          f.orders.order.ID,
		GatewayPaymentID: "pay_R4zp456",
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if result.AlreadyConfirmed {
		t.Fatal("first confirmation must not report already confirmed")
	}
	if result.PaymentStatus != "paid" || result.OrderStatus != "processing" {
		t.Fatalf("got %s/%s, want paid/processing", result.PaymentStatus, result.OrderStatus)
	}
	if result.PaidAt == nil {
		t.Fatal("paid_at must be set")
	}
	if f.carts.calls != 1 {
		t.Fatalf("cart cleared %d times, want 1", f.carts.calls)
	}
	if f.outbox.emitted[enums.EventOrderPaid] != 1 {
		t.Fatal("expected one order_paid outbox event")
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newPaymentsFixture(t, nil)
	req := ConfirmRequest{OrderID: f.orders.order.ID, GatewayPaymentID: "pay_R4zp456"}

	if _, err := f.service.Confirm(context.Background(), f.userID, req); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	second, err := f.service.Confirm(context.Background(), f.userID, req)
	if err != nil {
		t.Fatalf("second Confirm must succeed: %v", err)
	}

	if !second.AlreadyConfirmed {
		t.Fatal("second confirmation must report already confirmed")
	}
	if f.orders.markCalls != 1 {
		t.Fatalf("order marked paid %d times, want 1", f.orders.markCalls)
	}
	if f.carts.calls != 1 {
		t.Fatalf("cart cleared %d times, want exactly 1", f.carts.calls)
	}
	if f.outbox.emitted[enums.EventOrderPaid] != 1 {
		t.Fatalf("order_paid emitted %d times, want 1", f.outbox.emitted[enums.EventOrderPaid])
	}
}

func TestConfirmUnknownOrder(t *testing.T) {
	f := newPaymentsFixture(t, nil)

	_, err := f.service.Confirm(context.Background(), f.userID, ConfirmRequest{OrderID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmScopedToOwner(t *testing.T) {
	f := newPaymentsFixture(t, nil)

	_, err := f.service.Confirm(context.Background(), uuid.New(), ConfirmRequest{OrderID: f.orders.order.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("another user's order must read as not found, got %v", err)
	}
}

func TestConfirmValidSignature(t *testing.T) {
	f := newPaymentsFixture(t, hmacVerifier{})

	signature := signPayload(testKeySecret, "order_R4zp123", "pay_R4zp456")
	_, err := f.service.Confirm(context.Background(), f.userID, ConfirmRequest{
		OrderID:          f.orders.order.ID,
		GatewayOrderID:   "order_R4zp123",
		GatewayPaymentID: "pay_R4zp456",
		GatewaySignature: signature,
	})
	if err != nil {
		t.Fatalf("Confirm with valid signature: %v", err)
	}
}

func TestConfirmInvalidSignature(t *testing.T) {
	f := newPaymentsFixture(t, hmacVerifier{})

	_, err := f.service.Confirm(context.Background(), f.userID, ConfirmRequest{
		OrderID:          f.orders.order.ID,
		GatewayOrderID:   "order_R4zp123",
		GatewayPaymentID: "pay_R4zp456",
		GatewaySignature: "deadbeef",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.orders.markCalls != 0 {
		t.Fatal("order must stay pending after a signature mismatch")
	}
	if f.outbox.emitted[enums.EventOrderPaymentFailed] != 1 {
		t.Fatal("expected one order_payment_failed outbox event")
	}
	if f.carts.calls != 0 {
		t.Fatal("cart must not be cleared on a failed confirmation")
	}
}

func TestConfirmOfflineFallbackSkipsSignatureCheck(t *testing.T) {
	f := newPaymentsFixture(t, hmacVerifier{})

	// order placed while the gateway was down, no signature to verify
	_, err := f.service.Confirm(context.Background(), f.userID, ConfirmRequest{OrderID: f.orders.order.ID})
	if err != nil {
		t.Fatalf("offline fallback confirmation: %v", err)
	}
}
