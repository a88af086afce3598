package product

import (
	"encoding/json"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Fold applies a product event to state and returns the next state.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		state.Created = true
		state.Name = payload.Name
		state.Description = payload.Description
		state.Variants = make(map[string]Variant, len(payload.Variants))
		for _, variant := range payload.Variants {
			state.Variants[variant.ID] = variant
		}
	case EventTypeUpdated:
		var payload UpdatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		if payload.Name != nil {
			state.Name = *payload.Name
		}
		if payload.Description != nil {
			state.Description = *payload.Description
		}
	case EventTypeVariantAdded:
		var payload VariantAddPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state
		}
		if state.Variants == nil {
			state.Variants = make(map[string]Variant, 1)
		} else {
			variants := make(map[string]Variant, len(state.Variants)+1)
			for id, variant := range state.Variants {
				variants[id] = variant
			}
			state.Variants = variants
		}
		state.Variants[payload.Variant.ID] = payload.Variant
	case EventTypeArchived:
		state.Archived = true
	}
	return state
}
