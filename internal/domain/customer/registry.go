package customer

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/engine"
	"github.com/studiofit/membercore/internal/domain/event"
)

// RegisterCommands registers customer commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: commandTypeRegister, Aggregate: event.AggregateCustomer, ValidatePayload: validateRegisterPayload},
		{Type: commandTypeUpdate, Aggregate: event.AggregateCustomer, ValidatePayload: validateUpdatePayload},
		{Type: commandTypeArchive, Aggregate: event.AggregateCustomer},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers customer events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeRegistered, Aggregate: event.AggregateCustomer},
		{Type: EventTypeUpdated, Aggregate: event.AggregateCustomer},
		{Type: EventTypeArchived, Aggregate: event.AggregateCustomer},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the engine definition for the customer aggregate.
func Runtime() engine.Definition {
	return engine.Definition{
		Aggregate: event.AggregateCustomer,
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

func validateRegisterPayload(raw json.RawMessage) error {
	var payload RegisterPayload
	return json.Unmarshal(raw, &payload)
}

func validateUpdatePayload(raw json.RawMessage) error {
	var payload UpdatePayload
	return json.Unmarshal(raw, &payload)
}
