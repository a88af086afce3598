package contract

import (
	"encoding/json"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Fold applies an event to contract state.
func Fold(state State, evt event.Event) State {
	if evt.Type == EventTypeSigned {
		var payload SignPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Signed = true
		state.Status = StatusActive
		state.CustomerID = payload.CustomerID
		state.ProductVariantID = payload.ProductVariantID
		state.BookingID = payload.BookingID
		if start, err := parseDate(payload.StartDate); err == nil {
			state.StartDate = start
		}
		if end, err := parseDate(payload.EndDate); err == nil {
			state.EndDate = end
		}
	}
	if evt.Type == EventTypePaused {
		var payload PausePayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Status = StatusPaused
		if from, err := parseDate(payload.From); err == nil {
			state.LastPauseFrom = from
		}
		if to, err := parseDate(payload.To); err == nil {
			state.LastPauseTo = to
		}
	}
	if evt.Type == EventTypeResumed {
		var payload ResumedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Status = StatusActive
		if newEnd, err := parseDate(payload.NewEndDate); err == nil {
			state.EndDate = newEnd
		}
	}
	if evt.Type == EventTypeCancelled {
		state.Status = StatusCancelled
	}
	if evt.Type == EventTypeCompleted {
		state.Status = StatusCompleted
	}
	return state
}
