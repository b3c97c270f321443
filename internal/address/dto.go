package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
)

// UpsertRequest is the payload for creating or updating an address book entry.
// Phone and postal code follow Indian formats.
type UpsertRequest struct {
	Label             string  `json:"label" validate:"omitempty,max=40"`
	FullName          string  `json:"full_name" validate:"required,max=120"`
	Phone             string  `json:"phone" validate:"required,len=10,numeric"`
	Line1             string  `json:"line1" validate:"required,max=200"`
	Line2             *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City              string  `json:"city" validate:"required,max=80"`
	State             string  `json:"state" validate:"required,max=80"`
	PostalCode        string  `json:"postal_code" validate:"required,len=6,numeric"`
	Country           string  `json:"country" validate:"omitempty,len=2"`
	IsDefaultShipping bool    `json:"is_default_shipping"`
}

// AddressDTO is the transport shape of a saved address.
type AddressDTO struct {
	ID                uuid.UUID `json:"id"`
	Label             string    `json:"label"`
	FullName          string    `json:"full_name"`
	Phone             string    `json:"phone"`
	Line1             string    `json:"line1"`
	Line2             *string   `json:"line2,omitempty"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	PostalCode        string    `json:"postal_code"`
	Country           string    `json:"country"`
	IsDefaultShipping bool      `json:"is_default_shipping"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func fromModel(a models.Address) AddressDTO {
	return AddressDTO{
		ID:                a.ID,
		Label:             a.Label,
		FullName:          a.FullName,
		Phone:             a.Phone,
		Line1:             a.Line1,
		Line2:             a.Line2,
		City:              a.City,
		State:             a.State,
		PostalCode:        a.PostalCode,
		Country:           a.Country,
		IsDefaultShipping: a.IsDefaultShipping,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
