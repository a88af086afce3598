// Package replay walks an aggregate's event history in order, applying each
// event through a caller-supplied applier and checkpointing progress so a
// projection rebuild can resume where it left off.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrApplierRequired indicates a missing applier.
	ErrApplierRequired = errors.New("applier is required")
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// CheckpointStore manages replay checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, aggregate event.Aggregate, aggregateID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Applier applies a domain event to projection state.
type Applier interface {
	Apply(ctx context.Context, state any, evt event.Event) (any, error)
}

// Checkpoint captures the last applied sequence for one aggregate instance.
type Checkpoint struct {
	Aggregate   event.Aggregate
	AggregateID string
	LastSeq     uint64
	UpdatedAt   time.Time
}

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   any
	LastSeq uint64
	Applied int
}

// Replay folds events in sequence order and saves a checkpoint after each
// apply. Replays resume from the stored checkpoint when one exists.
func Replay(ctx context.Context, store storage.EventStore, checkpoints CheckpointStore, applier Applier, aggregate event.Aggregate, aggregateID string, state any, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if checkpoints == nil {
		return Result{}, ErrCheckpointStoreRequired
	}
	if applier == nil {
		return Result{}, ErrApplierRequired
	}
	if !aggregate.IsValid() {
		return Result{}, fmt.Errorf("aggregate type is invalid: %q", aggregate)
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return Result{}, ErrAggregateIDRequired
	}

	checkpointSeq := uint64(0)
	checkpoint, err := checkpoints.Get(ctx, aggregate, aggregateID)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			return Result{}, err
		}
	} else {
		checkpointSeq = checkpoint.LastSeq
	}

	lastSeq := options.AfterSeq
	if checkpointSeq > lastSeq {
		lastSeq = checkpointSeq
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: state, LastSeq: lastSeq}
	for {
		events, err := store.ListEvents(ctx, aggregate, aggregateID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expectedSeq, evt.Seq)
			}
			nextState, err := applier.Apply(ctx, result.State, evt)
			if err != nil {
				return result, err
			}
			result.State = nextState
			result.LastSeq = evt.Seq
			result.Applied++
			if err := checkpoints.Save(ctx, Checkpoint{
				Aggregate:   aggregate,
				AggregateID: aggregateID,
				LastSeq:     result.LastSeq,
				UpdatedAt:   time.Now().UTC(),
			}); err != nil {
				return result, err
			}
		}
	}
}
