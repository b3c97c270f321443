package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string           `gorm:"column:name;not null"`
	Slug          string           `gorm:"column:slug;not null;uniqueIndex"`
	SKU           string           `gorm:"column:sku;not null;uniqueIndex"`
	Description   *string          `gorm:"column:description"`
	Category      string           `gorm:"column:category;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(12,2)"`
	Images        pq.StringArray   `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Colors        pq.StringArray   `gorm:"column:colors;type:text[];not null;default:ARRAY[]::text[]"`
	Sizes         pq.StringArray   `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	Stock         int              `gorm:"column:stock;not null;default:0"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	IsFeatured    bool             `gorm:"column:is_featured;not null;default:false"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice is the price a shopper actually pays: the discount price when
// one is set and positive, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// FeaturedImage returns the first image URL, or empty when none uploaded.
func (p Product) FeaturedImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
