package types

import "strings"

// ShippingAddress is the address shape embedded into orders as a frozen copy.
// Edits to the address book after order creation never touch this snapshot.
type ShippingAddress struct {
	Label      string  `json:"label,omitempty"`
	FullName   string  `json:"full_name"`
	Phone      string  `json:"phone"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// IsComplete reports whether the snapshot carries the fields a courier needs.
func (a ShippingAddress) IsComplete() bool {
	for _, field := range []string{a.FullName, a.Phone, a.Line1, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
