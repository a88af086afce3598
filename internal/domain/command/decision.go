package command

import (
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event-specific type, payload, and timestamp.
// This eliminates per-decider boilerplate and ensures that new envelope
// fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		Aggregate:   cmd.Aggregate,
		AggregateID: cmd.AggregateID,
		Type:        eventType,
		Timestamp:   now,
		PayloadJSON: payloadJSON,
	}
}
