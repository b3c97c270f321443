package payments

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmRequest is the payment-success callback body posted by the
// storefront after the gateway checkout widget completes.
type ConfirmRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	GatewayOrderID   string    `json:"razorpay_order_id" validate:"omitempty,max=64"`
	GatewayPaymentID string    `json:"razorpay_payment_id" validate:"omitempty,max=64"`
	GatewaySignature string    `json:"razorpay_signature" validate:"omitempty,max=256"`
}

// ConfirmResult reports the confirmation outcome. AlreadyConfirmed marks a
// repeat callback that was accepted without re-running any side effects.
type ConfirmResult struct {
	OrderID          uuid.UUID  `json:"order_id"`
	OrderNumber      string     `json:"order_number"`
	PaymentStatus    string     `json:"payment_status"`
	OrderStatus      string     `json:"order_status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	AlreadyConfirmed bool       `json:"already_confirmed"`
}
