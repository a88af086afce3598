package contract

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/engine"
	"github.com/studiofit/membercore/internal/domain/event"
)

// RegisterCommands registers contract commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: commandTypeSign, Aggregate: event.AggregateContract, ValidatePayload: validateSignPayload},
		{Type: commandTypePause, Aggregate: event.AggregateContract, ValidatePayload: validatePausePayload},
		{Type: commandTypeResume, Aggregate: event.AggregateContract},
		{Type: commandTypeCancel, Aggregate: event.AggregateContract},
		{Type: commandTypeComplete, Aggregate: event.AggregateContract},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers contract events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeSigned, Aggregate: event.AggregateContract},
		{Type: EventTypePaused, Aggregate: event.AggregateContract},
		{Type: EventTypeResumed, Aggregate: event.AggregateContract},
		{Type: EventTypeCancelled, Aggregate: event.AggregateContract},
		{Type: EventTypeCompleted, Aggregate: event.AggregateContract},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the engine definition for the contract aggregate.
func Runtime() engine.Definition {
	return engine.Definition{
		Aggregate: event.AggregateContract,
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

func validateSignPayload(raw json.RawMessage) error {
	var payload SignPayload
	return json.Unmarshal(raw, &payload)
}

func validatePausePayload(raw json.RawMessage) error {
	var payload PausePayload
	return json.Unmarshal(raw, &payload)
}
