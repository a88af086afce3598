// Package command defines the command envelope and validation entry points.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studiofit/membercore/internal/domain/event"
)

var (
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string, e.g. "contract.pause".
type Type string

// Command captures the canonical command envelope. Commands express intent to
// change one aggregate instance and are never persisted.
type Command struct {
	Aggregate   event.Aggregate
	AggregateID string
	Type        Type
	RequestID   string
	PayloadJSON []byte
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	Aggregate       event.Aggregate
	ValidatePayload PayloadValidator
}

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if !def.Aggregate.IsValid() {
		return fmt.Errorf("aggregate type is invalid: %q", def.Aggregate)
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the registered definition for a command type.
func (r *Registry) Definition(t Type) (Definition, bool) {
	if r == nil || r.definitions == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[t]
	return def, ok
}

// ValidateForDecision validates and normalizes a command before decision handling.
func (r *Registry) ValidateForDecision(cmd Command) (Command, error) {
	cmd.AggregateID = strings.TrimSpace(cmd.AggregateID)
	if cmd.AggregateID == "" {
		return Command{}, ErrAggregateIDRequired
	}
	cmd.Type = Type(strings.TrimSpace(string(cmd.Type)))
	if cmd.Type == "" {
		return Command{}, ErrTypeRequired
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, ErrTypeUnknown
	}
	if cmd.Aggregate == "" {
		cmd.Aggregate = def.Aggregate
	}
	if cmd.Aggregate != def.Aggregate {
		return Command{}, fmt.Errorf("command %s targets aggregate %q, registered for %q", cmd.Type, cmd.Aggregate, def.Aggregate)
	}
	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(cmd.PayloadJSON); err != nil {
			return Command{}, fmt.Errorf("validate %s payload: %w", cmd.Type, err)
		}
	}
	return cmd, nil
}
