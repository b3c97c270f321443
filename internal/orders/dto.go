package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/types"
)

// OrderItemDTO is the wire shape of one snapshot line.
type OrderItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     *uuid.UUID      `json:"product_id,omitempty"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	SKU           string          `json:"sku"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	ImageURL      string          `json:"image_url,omitempty"`
	SelectedColor *string         `json:"selected_color,omitempty"`
	SelectedSize  *string         `json:"selected_size,omitempty"`
}

// OrderDTO is the wire shape of an order with its full price breakdown.
type OrderDTO struct {
	ID          uuid.UUID      `json:"id"`
	OrderNumber string         `json:"order_number"`
	Items       []OrderItemDTO `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	Shipping       decimal.Decimal `json:"shipping"`
	PaymentCharges decimal.Decimal `json:"payment_charges"`
	Total          decimal.Decimal `json:"total"`

	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	OrderStatus   enums.OrderStatus   `json:"order_status"`

	ShippingAddress types.ShippingAddress `json:"shipping_address"`

	TrackingNumber *string `json:"tracking_number,omitempty"`
	CourierName    *string `json:"courier_name,omitempty"`
	CouponCode     *string `json:"coupon_code,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// OrderPageDTO is one page of the user's order history.
type OrderPageDTO struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted order into its wire shape.
func FromModel(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			Name:          item.Name,
			Slug:          item.Slug,
			SKU:           item.SKU,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			ImageURL:      item.ImageURL,
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
		})
	}
	return OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Items:           items,
		Subtotal:        order.SubtotalAmount,
		Discount:        order.DiscountAmount,
		Tax:             order.TaxAmount,
		Shipping:        order.ShippingAmount,
		PaymentCharges:  order.PaymentChargesAmount,
		Total:           order.TotalAmount,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		OrderStatus:     order.OrderStatus,
		ShippingAddress: order.ShippingAddress,
		TrackingNumber:  order.TrackingNumber,
		CourierName:     order.CourierName,
		CouponCode:      order.CouponCode,
		PaidAt:          order.PaidAt,
		CreatedAt:       order.CreatedAt,
	}
}
