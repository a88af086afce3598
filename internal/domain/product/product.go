// Package product implements the membership product catalog aggregate.
package product

// Variant is one bookable variation of a product.
type Variant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	DurationDays int    `json:"duration_days"`
}

// State is the replayed state of one product aggregate.
type State struct {
	Created     bool
	Archived    bool
	Name        string
	Description string
	Variants    map[string]Variant
}

// CreatePayload captures the payload for product.create commands and product.created events.
type CreatePayload struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Variants    []Variant `json:"variants"`
}

// UpdatePayload captures the payload for product.update commands and product.updated events.
type UpdatePayload struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// VariantAddPayload captures the payload for product.variant.add commands and
// product.variant_added events.
type VariantAddPayload struct {
	Variant Variant `json:"variant"`
}

// ArchivePayload captures the payload for product.archive commands and product.archived events.
type ArchivePayload struct {
	Reason string `json:"reason,omitempty"`
}
