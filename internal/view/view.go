// Package view defines the denormalized read models maintained by projections.
package view

import "time"

// Customer is the queryable read model for a customer aggregate.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Address      string
	Archived     bool
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// ProductVariant is one bookable variant of a product.
type ProductVariant struct {
	ID           string
	Name         string
	PriceCents   int64
	DurationDays int
}

// Product is the queryable read model for a product aggregate.
type Product struct {
	ID          string
	Name        string
	Description string
	Archived    bool
	Variants    []ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContractStatus enumerates contract lifecycle states.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusPaused    ContractStatus = "PAUSED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
	ContractStatusCompleted ContractStatus = "COMPLETED"
	ContractStatusExpired   ContractStatus = "EXPIRED"
)

// Contract is the queryable read model for a membership contract aggregate.
type Contract struct {
	ID               string
	CustomerID       string
	ProductVariantID string
	BookingID        string
	Status           ContractStatus
	StartDate        time.Time
	EndDate          time.Time
	PausedFrom       *time.Time
	PausedTo         *time.Time
	SignedAt         time.Time
	UpdatedAt        time.Time
}

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusOpen      InvoiceStatus = "OPEN"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is the queryable read model for an invoice aggregate.
type Invoice struct {
	ID               string
	CustomerID       string
	BookingID        string
	ProductVariantID string
	Status           InvoiceStatus
	AmountCents      int64
	DueDate          time.Time
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
