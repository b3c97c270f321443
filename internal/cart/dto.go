package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
)

// AddItemRequest is the payload for adding a product line to the cart.
type AddItemRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	SelectedColor *string   `json:"selected_color,omitempty"`
	SelectedSize  *string   `json:"selected_size,omitempty"`
}

// UpdateItemRequest changes the quantity of an existing line. Zero removes it.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// LineDTO is one cart line joined with its live product data.
type LineDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	ImageURL      string          `json:"image_url,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	SelectedColor *string         `json:"selected_color,omitempty"`
	SelectedSize  *string         `json:"selected_size,omitempty"`
	InStock       bool            `json:"in_stock"`
}

// CartDTO is the transport shape of a cart with its priced lines.
type CartDTO struct {
	ID       uuid.UUID       `json:"id"`
	Items    []LineDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func lineFromModels(item models.CartItem, product models.Product) LineDTO {
	unit := product.EffectivePrice()
	return LineDTO{
		ID:            item.ID,
		ProductID:     item.ProductID,
		Name:          product.Name,
		Slug:          product.Slug,
		ImageURL:      product.FeaturedImage(),
		UnitPrice:     unit,
		OriginalPrice: product.Price,
		Quantity:      item.Quantity,
		LineTotal:     unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		SelectedColor: item.SelectedColor,
		SelectedSize:  item.SelectedSize,
		InStock:       product.Stock > 0,
	}
}
