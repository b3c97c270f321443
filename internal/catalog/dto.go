package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
)

// ProductDTO is the transport shape for catalog listings and detail pages.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	SKU           string           `json:"sku"`
	Description   *string          `json:"description,omitempty"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Images        []string         `json:"images"`
	Colors        []string         `json:"colors"`
	Sizes         []string         `json:"sizes"`
	Stock         int              `json:"stock"`
	InStock       bool             `json:"in_stock"`
	IsFeatured    bool             `json:"is_featured"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductPageDTO is one page of products plus the cursor to the next.
type ProductPageDTO struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		SKU:           p.SKU,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Images:        append([]string(nil), p.Images...),
		Colors:        append([]string(nil), p.Colors...),
		Sizes:         append([]string(nil), p.Sizes...),
		Stock:         p.Stock,
		InStock:       p.Stock > 0,
		IsFeatured:    p.IsFeatured,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
