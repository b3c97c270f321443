package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/types"
)

// Order is a placed order. Monetary components are rounded independently and
// total_amount always equals subtotal - discount + tax + shipping + charges
// with the discount already netted into the subtotal's unit prices.
type Order struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber string      `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	SubtotalAmount       decimal.Decimal `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	DiscountAmount       decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount            decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmount       decimal.Decimal `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	PaymentChargesAmount decimal.Decimal `gorm:"column:payment_charges_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount          decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null;default:'razorpay'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;not null;default:'pending'"`

	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	PaymentProviderOrderID   *string `gorm:"column:payment_provider_order_id"`
	PaymentProviderPaymentID *string `gorm:"column:payment_provider_payment_id"`
	PaymentProviderSignature *string `gorm:"column:payment_provider_signature"`

	TrackingNumber *string `gorm:"column:tracking_number"`
	CourierName    *string `gorm:"column:courier_name"`
	CouponCode     *string `gorm:"column:coupon_code"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the immutable per-line snapshot captured at order creation.
// Catalog price changes after this point never alter a placed order.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name          string          `gorm:"column:name;not null"`
	Slug          string          `gorm:"column:slug;not null"`
	SKU           string          `gorm:"column:sku;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	OriginalPrice decimal.Decimal `gorm:"column:original_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	ImageURL      string          `gorm:"column:image_url;not null;default:''"`
	SelectedColor *string         `gorm:"column:selected_color"`
	SelectedSize  *string         `gorm:"column:selected_size"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
