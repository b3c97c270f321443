package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the per-user in-progress order container.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one product+variant+quantity line in a cart. Quantity is always
// at least one; an update down to zero removes the row instead.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	SelectedColor *string   `gorm:"column:selected_color"`
	SelectedSize  *string   `gorm:"column:selected_size"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SameVariant reports whether another line refers to the same product with the
// same chosen color and size, the cart merge key.
func (i CartItem) SameVariant(productID uuid.UUID, color, size *string) bool {
	return i.ProductID == productID &&
		equalOptional(i.SelectedColor, color) &&
		equalOptional(i.SelectedSize, size)
}

func equalOptional(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
