package invoice

import (
	"encoding/json"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Fold applies an invoice event to state and returns the next state.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		state.Created = true
		state.Status = StatusOpen
		state.CustomerID = payload.CustomerID
		state.BookingID = payload.BookingID
		state.ProductVariantID = payload.ProductVariantID
		state.AmountCents = payload.AmountCents
		state.DueDate = payload.DueDate
	case EventTypePaid:
		var payload PaidPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		state.Status = StatusPaid
		state.PaidAt = payload.PaidAt
	case EventTypeOverdue:
		state.Status = StatusOverdue
	case EventTypeCancelled:
		state.Status = StatusCancelled
	}
	return state
}
