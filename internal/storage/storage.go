// Package storage declares the persistence contracts consumed by the domain
// runtime and the projections.
package storage

import (
	"context"
	"errors"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/view"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict indicates an optimistic-concurrency check failed because
// another command appended events to the same aggregate instance first.
var ErrVersionConflict = errors.New("aggregate version conflict")

// EventStore is the append-only journal of domain events.
//
// There is intentionally no update or delete operation: events are immutable
// once appended.
type EventStore interface {
	// AppendEvents atomically appends a batch of events for one aggregate
	// instance. expectedVersion must equal the current last sequence number
	// for the instance (0 for a new instance); otherwise ErrVersionConflict
	// is returned and nothing is persisted. On success the stored events are
	// returned with sequence numbers expectedVersion+1.. assigned.
	AppendEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, expectedVersion uint64, events []event.Event) ([]event.Event, error)

	// ListEvents returns events for an aggregate instance with seq > afterSeq,
	// ordered by sequence ascending, at most limit entries.
	ListEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error)

	// LatestSeq returns the last assigned sequence number for an aggregate
	// instance, or 0 when no events exist.
	LatestSeq(ctx context.Context, aggregate event.Aggregate, aggregateID string) (uint64, error)
}

// CustomerViewStore persists customer read models.
type CustomerViewStore interface {
	PutCustomer(ctx context.Context, customer view.Customer) error
	GetCustomer(ctx context.Context, id string) (view.Customer, error)
	ListCustomers(ctx context.Context, includeArchived bool) ([]view.Customer, error)
}

// ProductViewStore persists product read models.
type ProductViewStore interface {
	PutProduct(ctx context.Context, product view.Product) error
	GetProduct(ctx context.Context, id string) (view.Product, error)
	ListProducts(ctx context.Context, includeArchived bool) ([]view.Product, error)
}

// ContractViewStore persists membership contract read models.
type ContractViewStore interface {
	PutContract(ctx context.Context, contract view.Contract) error
	GetContract(ctx context.Context, id string) (view.Contract, error)
	ListContractsByStatus(ctx context.Context, status view.ContractStatus) ([]view.Contract, error)
	ListContractsByCustomer(ctx context.Context, customerID string) ([]view.Contract, error)
}

// InvoiceViewStore persists invoice read models.
type InvoiceViewStore interface {
	PutInvoice(ctx context.Context, invoice view.Invoice) error
	GetInvoice(ctx context.Context, id string) (view.Invoice, error)
	ListInvoicesByStatus(ctx context.Context, status view.InvoiceStatus) ([]view.Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID string) ([]view.Invoice, error)
}
