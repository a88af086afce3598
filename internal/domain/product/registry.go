package product

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/engine"
	"github.com/studiofit/membercore/internal/domain/event"
)

// RegisterCommands registers product commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: commandTypeCreate, Aggregate: event.AggregateProduct, ValidatePayload: validateCreatePayload},
		{Type: commandTypeUpdate, Aggregate: event.AggregateProduct},
		{Type: commandTypeVariantAdd, Aggregate: event.AggregateProduct, ValidatePayload: validateVariantAddPayload},
		{Type: commandTypeArchive, Aggregate: event.AggregateProduct},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers product events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeCreated, Aggregate: event.AggregateProduct},
		{Type: EventTypeUpdated, Aggregate: event.AggregateProduct},
		{Type: EventTypeVariantAdded, Aggregate: event.AggregateProduct},
		{Type: EventTypeArchived, Aggregate: event.AggregateProduct},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the engine definition for the product aggregate.
func Runtime() engine.Definition {
	return engine.Definition{
		Aggregate: event.AggregateProduct,
		NewState:  func() any { return State{} },
		Fold: func(state any, evt event.Event) any {
			current, _ := state.(State)
			return Fold(current, evt)
		},
		Decide: func(state any, cmd command.Command, now func() time.Time) command.Decision {
			current, _ := state.(State)
			return Decide(current, cmd, now)
		},
	}
}

func validateCreatePayload(raw json.RawMessage) error {
	var payload CreatePayload
	return json.Unmarshal(raw, &payload)
}

func validateVariantAddPayload(raw json.RawMessage) error {
	var payload VariantAddPayload
	return json.Unmarshal(raw, &payload)
}
