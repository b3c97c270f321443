package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/metrics"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox/payloads"
)

// Service confirms gateway payments against locally persisted orders.
type Service interface {
	Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*ConfirmResult, error)
}

type orderStore interface {
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, providerOrderID, paymentID, signature *string, paidAt time.Time) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// signatureVerifier checks the gateway's payment signature. Nil when gateway
// credentials are absent, which skips verification entirely.
type signatureVerifier interface {
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

type service struct {
	tx       transactor
	orders   orderStore
	carts    cartClearer
	outbox   outboxEmitter
	verifier signatureVerifier
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Tx        transactor
	OrderRepo orderStore
	CartSvc   cartClearer
	Outbox    outboxEmitter
	Verifier  signatureVerifier
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

// NewService constructs a payment confirmation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.CartSvc == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	return &service{
		tx:       params.Tx,
		orders:   params.OrderRepo,
		carts:    params.CartSvc,
		outbox:   params.Outbox,
		verifier: params.Verifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*ConfirmResult, error) {
	order, err := s.orders.FindForUser(ctx, userID, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncConfirmation("not_found")
			return nil, pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	// a repeat callback for an already-paid order succeeds without touching
	// anything, the gateway retries its webhooks aggressively
	if order.PaymentStatus == enums.PaymentStatusPaid {
		s.metrics.IncConfirmation("duplicate")
		if s.logg != nil {
			s.logg.Info(logCtx, "payment already confirmed, ignoring repeat callback")
		}
		return confirmResult(order, true), nil
	}

	if err := s.verify(ctx, order, req); err != nil {
		s.metrics.IncConfirmation("invalid_signature")
		return nil, err
	}

	paidAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		providerOrderID := optionalString(req.GatewayOrderID)
		paymentID := optionalString(req.GatewayPaymentID)
		signature := optionalString(req.GatewaySignature)
		if err := s.orders.MarkPaidTx(ctx, tx, order.ID, providerOrderID, paymentID, signature, paidAt); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				PaymentID:   req.GatewayPaymentID,
				Total:       order.TotalAmount,
				PaidAt:      paidAt,
			},
		})
	})
	if err != nil {
		s.metrics.IncConfirmation("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm payment")
	}

	s.metrics.IncConfirmation("success")
	if s.logg != nil {
		s.logg.Info(logCtx, "payment confirmed")
	}

	// best effort, a stale cart never blocks the confirmation response
	if err := s.carts.Clear(ctx, userID); err != nil && s.logg != nil {
		s.logg.Error(logCtx, "clearing cart after payment", err)
	}

	order.PaymentStatus = enums.PaymentStatusPaid
	order.OrderStatus = enums.OrderStatusProcessing
	order.PaidAt = &paidAt
	return confirmResult(order, false), nil
}

// verify checks the gateway signature when a verifier is configured. Orders
// confirmed through the offline fallback carry no signature and skip the check.
func (s *service) verify(ctx context.Context, order *models.Order, req ConfirmRequest) error {
	if s.verifier == nil {
		return nil
	}
	if req.GatewaySignature == "" && req.GatewayPaymentID == "" {
		// offline fallback confirmation, nothing to verify
		return nil
	}

	gatewayOrderID := req.GatewayOrderID
	if gatewayOrderID == "" && order.PaymentProviderOrderID != nil {
		gatewayOrderID = *order.PaymentProviderOrderID
	}

	if s.verifier.VerifySignature(gatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		return nil
	}

	s.recordFailedConfirmation(ctx, order, "signature mismatch")
	return pkgerrors.Reason(pkgerrors.CodeValidation, "INVALID_SIGNATURE", "payment signature verification failed")
}

func (s *service) recordFailedConfirmation(ctx context.Context, order *models.Order, reason string) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Reason:      reason,
			},
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "recording failed confirmation", err)
	}
}

func confirmResult(order *models.Order, alreadyConfirmed bool) *ConfirmResult {
	return &ConfirmResult{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		PaymentStatus:    order.PaymentStatus.String(),
		OrderStatus:      order.OrderStatus.String(),
		PaidAt:           order.PaidAt,
		AlreadyConfirmed: alreadyConfirmed,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
