package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/pkg/types"
)

// Address is one saved entry in a user's address book. At most one address per
// user carries is_default_shipping, enforced by the address service unsetting
// the others inside the same transaction.
type Address struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label             string    `gorm:"column:label;not null;default:'home'"`
	FullName          string    `gorm:"column:full_name;not null"`
	Phone             string    `gorm:"column:phone;not null"`
	Line1             string    `gorm:"column:line1;not null"`
	Line2             *string   `gorm:"column:line2"`
	City              string    `gorm:"column:city;not null"`
	State             string    `gorm:"column:state;not null"`
	PostalCode        string    `gorm:"column:postal_code;not null"`
	Country           string    `gorm:"column:country;not null;default:'IN'"`
	IsDefaultShipping bool      `gorm:"column:is_default_shipping;not null;default:false"`
	IsDefaultBilling  bool      `gorm:"column:is_default_billing;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Snapshot copies the address into the frozen shape embedded on orders.
func (a Address) Snapshot() types.ShippingAddress {
	return types.ShippingAddress{
		Label:      a.Label,
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
