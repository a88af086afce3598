package engine

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
)

// Publisher receives durably appended events for read-side delivery.
type Publisher interface {
	Publish(ctx context.Context, events []event.Event)
}

// Dispatcher routes commands to the runtime, serializing commands per
// aggregate instance so at most one command per id is in flight at a time.
// Commands targeting different ids proceed independently.
type Dispatcher struct {
	runtime   *Runtime
	publisher Publisher
	tracer    trace.Tracer

	mu    sync.Mutex
	locks map[lockKey]*instanceLock
}

type lockKey struct {
	aggregate   event.Aggregate
	aggregateID string
}

type instanceLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher creates a dispatcher for the given runtime. The publisher may
// be nil when no read side is attached (e.g. unit tests).
func NewDispatcher(runtime *Runtime, publisher Publisher) (*Dispatcher, error) {
	if runtime == nil {
		return nil, errors.New("runtime is required")
	}
	return &Dispatcher{
		runtime:   runtime,
		publisher: publisher,
		tracer:    otel.Tracer("membercore/engine"),
		locks:     make(map[lockKey]*instanceLock),
	}, nil
}

// Submit routes a command to its aggregate instance and returns the decision
// once the produced events are durably appended. Accepted events are handed
// to the publisher in append order before Submit returns.
func (d *Dispatcher) Submit(ctx context.Context, cmd command.Command) (command.Decision, error) {
	ctx, span := d.tracer.Start(ctx, "engine.submit", trace.WithAttributes(
		attribute.String("aggregate.type", string(cmd.Aggregate)),
		attribute.String("aggregate.id", cmd.AggregateID),
		attribute.String("command.type", string(cmd.Type)),
	))
	defer span.End()

	unlock := d.acquire(lockKey{aggregate: cmd.Aggregate, aggregateID: cmd.AggregateID})
	defer unlock()

	decision, err := d.runtime.Handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		return command.Decision{}, err
	}
	if decision.Rejected() {
		span.SetAttributes(attribute.String("command.rejection", decision.Rejections[0].Code))
		return decision, nil
	}
	span.SetAttributes(attribute.Int("command.events", len(decision.Events)))

	if d.publisher != nil && len(decision.Events) > 0 {
		d.publisher.Publish(ctx, decision.Events)
	}
	return decision, nil
}

// acquire takes the per-instance lock, creating it on first use and removing
// it once the last holder releases.
func (d *Dispatcher) acquire(key lockKey) func() {
	d.mu.Lock()
	lock, ok := d.locks[key]
	if !ok {
		lock = &instanceLock{}
		d.locks[key] = lock
	}
	lock.refs++
	d.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		d.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}
