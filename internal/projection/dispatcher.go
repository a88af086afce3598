package projection

import (
	"context"
	"log"
	"sync"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

// Handler consumes appended events.
type Handler interface {
	Apply(ctx context.Context, evt event.Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.Event) error

// Apply implements Handler.
func (f HandlerFunc) Apply(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// Dispatcher fans appended events out to registered consumers in append
// order. A failure is logged and delivery continues; the durable event is
// never rolled back because a read-side consumer failed. Projections and
// side effects differ in one way: an event's outbox entry completes only
// when every projection applied, so the outbox worker retries failed view
// updates but never re-runs an event for a failed side effect.
type Dispatcher struct {
	notifier *Notifier
	outbox   storage.OutboxStore

	mu          sync.RWMutex
	projections map[event.Aggregate][]Handler
	sideEffects map[event.Aggregate][]Handler
}

// NewDispatcher creates a dispatcher. The notifier and outbox are optional.
func NewDispatcher(notifier *Notifier, outbox storage.OutboxStore) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		outbox:      outbox,
		projections: make(map[event.Aggregate][]Handler),
		sideEffects: make(map[event.Aggregate][]Handler),
	}
}

// RegisterProjection subscribes a view-updating handler to all events of one
// aggregate type. Its failures leave the outbox entry pending for retry.
func (d *Dispatcher) RegisterProjection(aggregate event.Aggregate, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projections[aggregate] = append(d.projections[aggregate], handler)
}

// RegisterSideEffect subscribes a log-and-forget consumer (email, PDF,
// third-party sync) to all events of one aggregate type. Its failures are
// logged and never hold the outbox entry open.
func (d *Dispatcher) RegisterSideEffect(aggregate event.Aggregate, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sideEffects[aggregate] = append(d.sideEffects[aggregate], handler)
}

// Publish delivers events, in the order given, to every consumer registered
// for their aggregate type. Events for one aggregate id arrive in append
// order because the command dispatcher serializes commands per id.
func (d *Dispatcher) Publish(ctx context.Context, events []event.Event) {
	for _, evt := range events {
		d.mu.RLock()
		projections := d.projections[evt.Aggregate]
		sideEffects := d.sideEffects[evt.Aggregate]
		d.mu.RUnlock()

		applied := true
		for _, handler := range projections {
			if err := handler.Apply(ctx, evt); err != nil {
				applied = false
				log.Printf("projection apply failed aggregate=%s aggregate_id=%s seq=%d type=%s: %v",
					evt.Aggregate, evt.AggregateID, evt.Seq, evt.Type, err)
			}
		}
		for _, handler := range sideEffects {
			if err := handler.Apply(ctx, evt); err != nil {
				log.Printf("side effect failed aggregate=%s aggregate_id=%s seq=%d type=%s: %v",
					evt.Aggregate, evt.AggregateID, evt.Seq, evt.Type, err)
			}
		}

		if applied && d.outbox != nil {
			if err := d.outbox.CompleteOutbox(ctx, evt.Aggregate, evt.AggregateID, evt.Seq); err != nil {
				log.Printf("outbox complete failed aggregate=%s aggregate_id=%s seq=%d: %v",
					evt.Aggregate, evt.AggregateID, evt.Seq, err)
			}
		}
		if d.notifier != nil {
			d.notifier.Notify(evt.Aggregate, evt.AggregateID)
		}
	}
}
