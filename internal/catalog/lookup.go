package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// RefKind says how a product reference string should be resolved.
type RefKind int

const (
	// RefByID means the value parsed as a UUID and targets the primary key.
	RefByID RefKind = iota
	// RefBySlugOrSKU means the value is matched against slug first, then SKU.
	RefBySlugOrSKU
)

// ProductRef is a parsed storefront product reference. Detail URLs accept an
// id, a slug, or a SKU in the same path segment.
type ProductRef struct {
	Kind RefKind
	ID   uuid.UUID
	Text string
}

// ParseProductRef classifies the raw path value.
func ParseProductRef(raw string) ProductRef {
	value := strings.TrimSpace(raw)
	if id, err := uuid.Parse(value); err == nil {
		return ProductRef{Kind: RefByID, ID: id}
	}
	return ProductRef{Kind: RefBySlugOrSKU, Text: value}
}
