package customer

import (
	"encoding/json"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Fold applies a customer event to state and returns the next state.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case EventTypeRegistered:
		var payload RegisterPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		state.Registered = true
		state.Name = payload.Name
		state.Email = payload.Email
		state.Address = payload.Address
	case EventTypeUpdated:
		var payload UpdatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		if name, ok := payload.Fields["name"]; ok {
			state.Name = name
		}
		if email, ok := payload.Fields["email"]; ok {
			state.Email = email
		}
		if address, ok := payload.Fields["address"]; ok {
			state.Address = address
		}
	case EventTypeArchived:
		state.Archived = true
	}
	return state
}
