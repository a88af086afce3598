// Package engine hosts the generic aggregate runtime: it reconstructs state
// by folding an aggregate's event history, decides commands against that
// state, and appends accepted events with optimistic concurrency.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

const (
	loadPageSize = 200
	// maxConflictAttempts bounds the internal reload-decide-append retry loop
	// when another command wins the append race.
	maxConflictAttempts = 3
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrEventRegistryRequired indicates a missing event registry.
	ErrEventRegistryRequired = errors.New("event registry is required")
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrAggregateUnknown indicates a command for an unregistered aggregate type.
	ErrAggregateUnknown = errors.New("aggregate type is not registered")
)

// Definition wires one aggregate type into the runtime: its empty state, the
// fold function, and the decide function.
type Definition struct {
	Aggregate event.Aggregate
	NewState  func() any
	Fold      func(state any, evt event.Event) any
	Decide    func(state any, cmd command.Command, now func() time.Time) command.Decision
}

// Runtime loads, folds, decides, and appends for all registered aggregates.
type Runtime struct {
	commands    *command.Registry
	events      *event.Registry
	store       storage.EventStore
	definitions map[event.Aggregate]Definition
	now         func() time.Time
}

// NewRuntime creates a runtime bound to the given registries and event store.
func NewRuntime(commands *command.Registry, events *event.Registry, store storage.EventStore) (*Runtime, error) {
	if commands == nil {
		return nil, ErrCommandRegistryRequired
	}
	if events == nil {
		return nil, ErrEventRegistryRequired
	}
	if store == nil {
		return nil, ErrEventStoreRequired
	}
	return &Runtime{
		commands:    commands,
		events:      events,
		store:       store,
		definitions: make(map[event.Aggregate]Definition),
		now:         time.Now,
	}, nil
}

// Register adds an aggregate definition to the runtime.
func (r *Runtime) Register(def Definition) error {
	if r == nil {
		return errors.New("runtime is required")
	}
	if !def.Aggregate.IsValid() {
		return fmt.Errorf("aggregate type is invalid: %q", def.Aggregate)
	}
	if def.NewState == nil || def.Fold == nil || def.Decide == nil {
		return fmt.Errorf("aggregate %s definition requires NewState, Fold, and Decide", def.Aggregate)
	}
	if _, exists := r.definitions[def.Aggregate]; exists {
		return fmt.Errorf("aggregate already registered: %s", def.Aggregate)
	}
	r.definitions[def.Aggregate] = def
	return nil
}

// CurrentState replays an aggregate instance from its event history and
// returns the folded state together with the observed version.
func (r *Runtime) CurrentState(ctx context.Context, aggregate event.Aggregate, aggregateID string) (any, uint64, error) {
	def, ok := r.definitions[aggregate]
	if !ok {
		return nil, 0, ErrAggregateUnknown
	}
	return r.load(ctx, def, aggregateID)
}

// Handle validates a command, replays the target aggregate, decides, and
// appends the produced events. Version conflicts are retried a bounded number
// of times; the final conflict is surfaced to the caller.
func (r *Runtime) Handle(ctx context.Context, cmd command.Command) (command.Decision, error) {
	validated, err := r.commands.ValidateForDecision(cmd)
	if err != nil {
		return command.Decision{}, err
	}
	cmd = validated

	def, ok := r.definitions[cmd.Aggregate]
	if !ok {
		return command.Decision{}, ErrAggregateUnknown
	}

	var lastErr error
	for attempt := 0; attempt < maxConflictAttempts; attempt++ {
		state, version, err := r.load(ctx, def, cmd.AggregateID)
		if err != nil {
			return command.Decision{}, err
		}

		decision := def.Decide(state, cmd, r.now)
		if decision.Rejected() || len(decision.Events) == 0 {
			return decision, nil
		}

		vetted := make([]event.Event, 0, len(decision.Events))
		for _, evt := range decision.Events {
			validated, err := r.events.ValidateForAppend(evt)
			if err != nil {
				return command.Decision{}, err
			}
			vetted = append(vetted, validated)
		}

		stored, err := r.store.AppendEvents(ctx, cmd.Aggregate, cmd.AggregateID, version, vetted)
		if err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return command.Decision{}, fmt.Errorf("append events: %w", err)
		}

		decision.Events = stored
		return decision, nil
	}

	return command.Decision{}, fmt.Errorf("handle %s after %d attempts: %w", cmd.Type, maxConflictAttempts, lastErr)
}

// load replays all events for one aggregate instance, folding from the empty
// state. The returned version is the last folded sequence number.
func (r *Runtime) load(ctx context.Context, def Definition, aggregateID string) (any, uint64, error) {
	state := def.NewState()
	version := uint64(0)
	for {
		events, err := r.store.ListEvents(ctx, def.Aggregate, aggregateID, version, loadPageSize)
		if err != nil {
			return nil, 0, fmt.Errorf("list events: %w", err)
		}
		if len(events) == 0 {
			return state, version, nil
		}
		for _, evt := range events {
			expected := version + 1
			if evt.Seq != expected {
				return nil, 0, fmt.Errorf("event sequence gap for %s/%s: expected %d got %d",
					def.Aggregate, aggregateID, expected, evt.Seq)
			}
			state = def.Fold(state, evt)
			version = evt.Seq
		}
	}
}
