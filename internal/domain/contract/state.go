// Package contract implements the membership contract aggregate: decide,
// fold, and registration of its command and event types.
package contract

import "time"

// Status enumerates contract lifecycle states.
type Status string

const (
	// StatusActive indicates a running contract.
	StatusActive Status = "ACTIVE"
	// StatusPaused indicates a contract suspended by a pause window.
	StatusPaused Status = "PAUSED"
	// StatusCancelled indicates a contract terminated before its end date.
	StatusCancelled Status = "CANCELLED"
	// StatusCompleted indicates a contract that ran to completion.
	StatusCompleted Status = "COMPLETED"
	// StatusExpired indicates a contract past its validity end date.
	StatusExpired Status = "EXPIRED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// State captures contract facts derived from domain events.
type State struct {
	Signed           bool
	Status           Status
	CustomerID       string
	ProductVariantID string
	BookingID        string
	StartDate        time.Time
	EndDate          time.Time
	LastPauseFrom    time.Time
	LastPauseTo      time.Time
}
