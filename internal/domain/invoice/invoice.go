// Package invoice implements the billing invoice aggregate.
package invoice

// Status enumerates invoice lifecycle states.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusOverdue   Status = "OVERDUE"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// State is the replayed state of one invoice aggregate.
type State struct {
	Created          bool
	Status           Status
	CustomerID       string
	BookingID        string
	ProductVariantID string
	AmountCents      int64
	DueDate          string
	PaidAt           string
}

// CreatePayload captures the payload for invoice.create commands and invoice.created events.
type CreatePayload struct {
	CustomerID       string `json:"customer_id"`
	BookingID        string `json:"booking_id"`
	ProductVariantID string `json:"product_variant_id,omitempty"`
	AmountCents      int64  `json:"amount_cents"`
	DueDate          string `json:"due_date"`
}

// PaidPayload captures the payload for invoice.mark_paid commands and invoice.paid events.
type PaidPayload struct {
	PaidAt string `json:"paid_at,omitempty"`
}

// OverduePayload captures the payload for invoice.mark_overdue commands and
// invoice.overdue events.
type OverduePayload struct{}

// CancelPayload captures the payload for invoice.cancel commands and invoice.cancelled events.
type CancelPayload struct {
	Reason string `json:"reason,omitempty"`
}
