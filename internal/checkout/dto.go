package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/internal/orders"
)

// CreateOrderRequest is the checkout submission body.
type CreateOrderRequest struct {
	AddressID     *uuid.UUID `json:"address_id" validate:"omitempty"`
	PaymentMethod string     `json:"payment_method" validate:"omitempty,oneof=razorpay cod"`
	CouponCode    *string    `json:"coupon_code" validate:"omitempty,max=64"`
}

// CreateOrderResult reports the placed order plus the gateway handle when one
// could be opened. Fallback means the order exists locally but the gateway
// was unreachable and payment must be collected out of band.
type CreateOrderResult struct {
	Order          orders.OrderDTO `json:"order"`
	GatewayOrderID string          `json:"gateway_order_id,omitempty"`
	AmountMinor    int64           `json:"amount_minor"`
	Currency       string          `json:"currency,omitempty"`
	Fallback       bool            `json:"fallback"`
}

// GatewayOrderResult is the response of an explicit gateway order creation
// for an already-placed order.
type GatewayOrderResult struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountMinor    int64           `json:"amount_minor"`
	Currency       string          `json:"currency"`
}
