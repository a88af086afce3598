// Package app wires the domain runtime, the stores, and the projections into
// one process-level service: commands in, events appended, views updated,
// read-your-writes subscriptions on top.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/contract"
	"github.com/studiofit/membercore/internal/domain/customer"
	"github.com/studiofit/membercore/internal/domain/engine"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/invoice"
	"github.com/studiofit/membercore/internal/domain/product"
	"github.com/studiofit/membercore/internal/domain/replay"
	"github.com/studiofit/membercore/internal/platform/id"
	"github.com/studiofit/membercore/internal/projection"
	"github.com/studiofit/membercore/internal/storage"
)

// DefaultAwaitTimeout bounds how long SubmitAndWait blocks for the projection
// to observe the submitted command's events.
const DefaultAwaitTimeout = 5 * time.Second

// Options configures an App.
type Options struct {
	EventStore storage.EventStore
	// Outbox is optional; when set, failed projection applies are retried by
	// the outbox worker started from Run.
	Outbox storage.OutboxStore
	// Checkpoints is optional; when set, RebuildViews can resume targeted
	// view rebuilds from the persisted replay position.
	Checkpoints replay.CheckpointStore

	CustomerViews storage.CustomerViewStore
	ProductViews  storage.ProductViewStore
	ContractViews storage.ContractViewStore
	InvoiceViews  storage.InvoiceViewStore

	// AwaitTimeout overrides DefaultAwaitTimeout when positive.
	AwaitTimeout time.Duration
}

// App is the membership core: command dispatch on the write side, projection
// queries on the read side.
type App struct {
	commands *command.Registry
	events   *event.Registry

	dispatcher  *engine.Dispatcher
	projections *projection.Dispatcher
	notifier    *projection.Notifier
	worker      *projection.Worker

	eventStore  storage.EventStore
	checkpoints replay.CheckpointStore
	applier     projection.Applier

	customerViews storage.CustomerViewStore
	productViews  storage.ProductViewStore
	contractViews storage.ContractViewStore
	invoiceViews  storage.InvoiceViewStore

	awaitTimeout time.Duration
}

// EventRegistry returns a registry with every aggregate's event types
// registered. Stores that validate appends share it with the runtime.
func EventRegistry() (*event.Registry, error) {
	events := event.NewRegistry()
	for _, register := range []func(*event.Registry) error{
		customer.RegisterEvents, product.RegisterEvents,
		contract.RegisterEvents, invoice.RegisterEvents,
	} {
		if err := register(events); err != nil {
			return nil, fmt.Errorf("register events: %w", err)
		}
	}
	return events, nil
}

// New builds an App with all four aggregates registered.
func New(opts Options) (*App, error) {
	if opts.EventStore == nil {
		return nil, errors.New("event store is required")
	}

	commands := command.NewRegistry()
	for _, register := range []func(*command.Registry) error{
		customer.RegisterCommands, product.RegisterCommands,
		contract.RegisterCommands, invoice.RegisterCommands,
	} {
		if err := register(commands); err != nil {
			return nil, fmt.Errorf("register commands: %w", err)
		}
	}
	events, err := EventRegistry()
	if err != nil {
		return nil, err
	}

	runtime, err := engine.NewRuntime(commands, events, opts.EventStore)
	if err != nil {
		return nil, err
	}
	for _, def := range []engine.Definition{
		customer.Runtime(), product.Runtime(), contract.Runtime(), invoice.Runtime(),
	} {
		if err := runtime.Register(def); err != nil {
			return nil, fmt.Errorf("register aggregate: %w", err)
		}
	}

	notifier := projection.NewNotifier()
	projections := projection.NewDispatcher(notifier, opts.Outbox)
	applier := projection.Applier{
		Customer: opts.CustomerViews,
		Product:  opts.ProductViews,
		Contract: opts.ContractViews,
		Invoice:  opts.InvoiceViews,
	}
	for _, aggregate := range []event.Aggregate{
		event.AggregateCustomer, event.AggregateProduct,
		event.AggregateContract, event.AggregateInvoice,
	} {
		projections.RegisterProjection(aggregate, projection.HandlerFunc(applier.Apply))
	}

	dispatcher, err := engine.NewDispatcher(runtime, projections)
	if err != nil {
		return nil, err
	}

	app := &App{
		commands:      commands,
		events:        events,
		dispatcher:    dispatcher,
		projections:   projections,
		notifier:      notifier,
		eventStore:    opts.EventStore,
		checkpoints:   opts.Checkpoints,
		applier:       applier,
		customerViews: opts.CustomerViews,
		productViews:  opts.ProductViews,
		contractViews: opts.ContractViews,
		invoiceViews:  opts.InvoiceViews,
		awaitTimeout:  opts.AwaitTimeout,
	}
	if app.awaitTimeout <= 0 {
		app.awaitTimeout = DefaultAwaitTimeout
	}

	if opts.Outbox != nil {
		worker, err := projection.NewWorker(opts.EventStore, opts.Outbox, applier, notifier)
		if err != nil {
			return nil, err
		}
		app.worker = worker
	}

	return app, nil
}

// RegisterSideEffect subscribes an additional handler (email, PDF,
// third-party sync) to one aggregate's events. Side-effect failures are
// logged, never surface to command callers, and never trigger an outbox
// retry of the already-applied projection.
func (a *App) RegisterSideEffect(aggregate event.Aggregate, handler projection.Handler) {
	a.projections.RegisterSideEffect(aggregate, handler)
}

// NewID returns a fresh aggregate id.
func (a *App) NewID() (string, error) {
	return id.NewID()
}

// Submit routes a command to its aggregate and returns the decision once any
// produced events are durably appended and published.
func (a *App) Submit(ctx context.Context, cmd command.Command) (command.Decision, error) {
	return a.dispatcher.Submit(ctx, cmd)
}

// SubmitAndWait submits a command and blocks until the projections have
// observed its events or the await timeout elapses. The boolean reports
// whether the update was observed; on timeout the caller reads
// possibly-stale views.
func (a *App) SubmitAndWait(ctx context.Context, cmd command.Command) (command.Decision, bool, error) {
	sub := a.notifier.Subscribe(cmd.Aggregate, cmd.AggregateID)
	defer sub.Close()

	decision, err := a.dispatcher.Submit(ctx, cmd)
	if err != nil {
		return command.Decision{}, false, err
	}
	if decision.Rejected() || len(decision.Events) == 0 {
		return decision, false, nil
	}

	observed := sub.AwaitUpdate(ctx, a.awaitTimeout)
	return decision, observed, nil
}

// RebuildViews replays one aggregate instance's event history through the
// view applier, resuming from the persisted checkpoint so repeated rebuilds
// only apply what is new. Subscribers are notified when anything applied.
// It returns the number of events applied.
func (a *App) RebuildViews(ctx context.Context, aggregate event.Aggregate, aggregateID string) (int, error) {
	if a.checkpoints == nil {
		return 0, errors.New("checkpoint store is required")
	}

	result, err := replay.Replay(ctx, a.eventStore, a.checkpoints, viewRebuilder{applier: a.applier},
		aggregate, aggregateID, nil, replay.Options{})
	if result.Applied > 0 {
		a.notifier.Notify(aggregate, aggregateID)
	}
	if err != nil {
		return result.Applied, fmt.Errorf("rebuild %s views: %w", aggregate, err)
	}
	return result.Applied, nil
}

// viewRebuilder adapts the projection applier to the replay fold. The view
// stores carry the state, so the fold state passes through untouched.
type viewRebuilder struct {
	applier projection.Applier
}

func (r viewRebuilder) Apply(ctx context.Context, state any, evt event.Event) (any, error) {
	return state, r.applier.Apply(ctx, evt)
}

// Subscribe opens a read-your-writes subscription for one aggregate
// instance. The caller must Close it on every exit path.
func (a *App) Subscribe(aggregate event.Aggregate, aggregateID string) *projection.Subscription {
	return a.notifier.Subscribe(aggregate, aggregateID)
}

// Run starts the background outbox worker and blocks until the context is
// cancelled. It returns nil when no outbox is configured.
func (a *App) Run(ctx context.Context) error {
	if a.worker == nil {
		<-ctx.Done()
		return nil
	}
	group, ctx := errgroup.WithContext(ctx)
	a.worker.RunGroup(ctx, group)
	return group.Wait()
}
