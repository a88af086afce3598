// Package event defines the immutable event envelope and append validation.
package event

import (
	"strings"
	"time"
)

// Aggregate identifies the event-sourced entity type an event belongs to.
type Aggregate string

const (
	// AggregateCustomer scopes events to a customer.
	AggregateCustomer Aggregate = "customer"
	// AggregateProduct scopes events to a product.
	AggregateProduct Aggregate = "product"
	// AggregateContract scopes events to a membership contract.
	AggregateContract Aggregate = "contract"
	// AggregateInvoice scopes events to an invoice.
	AggregateInvoice Aggregate = "invoice"
)

// IsValid reports whether the aggregate type is one of the known kinds.
func (a Aggregate) IsValid() bool {
	switch a {
	case AggregateCustomer, AggregateProduct, AggregateContract, AggregateInvoice:
		return true
	}
	return false
}

// Type identifies the kind of an event, e.g. "contract.signed".
type Type string

// Domain returns the aggregate prefix of the event type (e.g. "contract").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// Event represents an immutable fact in the membership event journal.
//
// Events are append-only: once stored they are never mutated or deleted.
// Cancellation and expiry are modeled as further events.
type Event struct {
	// Aggregate is the entity type this event belongs to.
	Aggregate Aggregate
	// AggregateID is the entity instance this event belongs to.
	AggregateID string
	// Seq is the event sequence number within the aggregate instance
	// (starts at 1, no gaps). Assigned by storage on append.
	Seq uint64
	// Type identifies the kind of event.
	Type Type
	// SchemaRev tags the payload schema revision for forward compatibility.
	SchemaRev int
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Hash is the content-addressed identity (SHA-256, hex).
	// Assigned by storage on append.
	Hash string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}
