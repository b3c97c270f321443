package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent signals that checkout produced a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	ItemCount     int             `json:"item_count"`
}

// OrderPaidEvent is emitted when the gateway confirms payment for an order.
type OrderPaidEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	PaymentID   string          `json:"payment_id"`
	Total       decimal.Decimal `json:"total"`
	PaidAt      time.Time       `json:"paid_at"`
}

// OrderPaymentFailedEvent records a confirmation attempt that did not verify.
type OrderPaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
}

// OrderGatewayOfflineEvent reports that an order was placed while the payment
// gateway was unreachable and needs manual follow-up.
type OrderGatewayOfflineEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	GatewayErr  string    `json:"gateway_error,omitempty"`
}
