package invoice

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/engine"
	"github.com/studiofit/membercore/internal/domain/event"
)

// RegisterCommands registers invoice commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: commandTypeCreate, Aggregate: event.AggregateInvoice, ValidatePayload: validateCreatePayload},
		{Type: commandTypeMarkPaid, Aggregate: event.AggregateInvoice},
		{Type: commandTypeMarkOverdue, Aggregate: event.AggregateInvoice},
		{Type: commandTypeCancel, Aggregate: event.AggregateInvoice},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers invoice events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeCreated, Aggregate: event.AggregateInvoice},
		{Type: EventTypePaid, Aggregate: event.AggregateInvoice},
		{Type: EventTypeOverdue, Aggregate: event.AggregateInvoice},
		{Type: EventTypeCancelled, Aggregate: event.AggregateInvoice},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the engine definition for the invoice aggregate.
func Runtime() engine.Definition {
	return engine.Definition{
		Aggregate: event.AggregateInvoice,
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
