package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/studiofit/membercore/internal/domain/command"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/projection"
	"github.com/studiofit/membercore/internal/storage/memory"
	"github.com/studiofit/membercore/internal/view"
)

func newTestApp(t *testing.T) (*App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	app, err := New(Options{
		EventStore:    store,
		Outbox:        store,
		CustomerViews: store,
		ProductViews:  store,
		ContractViews: store,
		InvoiceViews:  store,
		AwaitTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app, store
}

func mustJSON(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestNewRequiresEventStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without event store")
	}
}

func TestSubmitProjectsCustomerView(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	decision, err := app.Submit(ctx, command.Command{
		Aggregate:   event.AggregateCustomer,
		AggregateID: "cus_1",
		Type:        "customer.register",
		PayloadJSON: mustJSON(t, map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"}),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if decision.Rejected() {
		t.Fatalf("unexpected rejections: %v", decision.Rejections)
	}

	customer, err := app.Customer(ctx, "cus_1")
	if err != nil {
		t.Fatalf("Customer: %v", err)
	}
	if customer.Name != "Ada Lovelace" || customer.Email != "ada@example.com" {
		t.Fatalf("unexpected customer view: %+v", customer)
	}
}

func TestSubmitAndWaitObservesProjection(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	decision, observed, err := app.SubmitAndWait(ctx, command.Command{
		Aggregate:   event.AggregateCustomer,
		AggregateID: "cus_1",
		Type:        "customer.register",
		PayloadJSON: mustJSON(t, map[string]string{"name": "Ada", "email": "ada@example.com"}),
	})
	if err != nil {
		t.Fatalf("SubmitAndWait: %v", err)
	}
	if decision.Rejected() {
		t.Fatalf("unexpected rejections: %v", decision.Rejections)
	}
	if !observed {
		t.Fatal("expected projection update to be observed")
	}
}

func TestSubmitAndWaitRejectionSkipsWait(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	decision, observed, err := app.SubmitAndWait(ctx, command.Command{
		Aggregate:   event.AggregateCustomer,
		AggregateID: "cus_missing",
		Type:        "customer.archive",
		PayloadJSON: []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("SubmitAndWait: %v", err)
	}
	if !decision.Rejected() {
		t.Fatal("expected rejection for archiving an unregistered customer")
	}
	if observed {
		t.Fatal("rejected command must not report an observed update")
	}
}

func TestSubmitUnknownCommandType(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.Submit(context.Background(), command.Command{
		Aggregate:   event.AggregateCustomer,
		AggregateID: "cus_1",
		Type:        "customer.explode",
		PayloadJSON: []byte(`{}`),
	})
	if !errors.Is(err, command.ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestContractLifecycleProjectsResumeExtension(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	submit := func(cmdType command.Type, payload any) command.Decision {
		t.Helper()
		decision, _, err := app.SubmitAndWait(ctx, command.Command{
			Aggregate:   event.AggregateContract,
			AggregateID: "con_1",
			Type:        cmdType,
			PayloadJSON: mustJSON(t, payload),
		})
		if err != nil {
			t.Fatalf("SubmitAndWait %s: %v", cmdType, err)
		}
		if decision.Rejected() {
			t.Fatalf("%s rejected: %v", cmdType, decision.Rejections)
		}
		return decision
	}

	submit("contract.sign", map[string]string{
		"customer_id":        "cus_1",
		"product_variant_id": "var_1",
		"booking_id":         "bok_1",
		"start_date":         "2023-01-01",
		"end_date":           "2023-12-31",
	})
	submit("contract.pause", map[string]string{"from": "2023-06-01", "to": "2023-06-30"})

	paused, err := app.Contract(ctx, "con_1")
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if paused.Status != view.ContractStatusPaused {
		t.Fatalf("status = %s, want PAUSED", paused.Status)
	}
	if paused.PausedFrom == nil || paused.PausedTo == nil {
		t.Fatal("expected paused dates on the view")
	}

	submit("contract.resume", map[string]string{})

	resumed, err := app.Contract(ctx, "con_1")
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if resumed.Status != view.ContractStatusActive {
		t.Fatalf("status = %s, want ACTIVE", resumed.Status)
	}
	if got := resumed.EndDate.Format("2006-01-02"); got != "2024-01-29" {
		t.Fatalf("end date = %s, want 2024-01-29", got)
	}
	if resumed.PausedFrom != nil || resumed.PausedTo != nil {
		t.Fatal("resume must clear the paused range")
	}

	active, err := app.ContractsByCustomer(ctx, "cus_1")
	if err != nil {
		t.Fatalf("ContractsByCustomer: %v", err)
	}
	if len(active) != 1 || active[0].ID != "con_1" {
		t.Fatalf("unexpected contracts for customer: %+v", active)
	}
}

func TestRebuildViewsReplaysIntoProjections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	app, err := New(Options{
		EventStore:    store,
		Outbox:        store,
		Checkpoints:   store,
		CustomerViews: store,
		ProductViews:  store,
		ContractViews: store,
		InvoiceViews:  store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Seed the journal directly so the views have never seen these events.
	if _, err := store.AppendEvents(ctx, event.AggregateCustomer, "cus-1", 0, []event.Event{
		{Type: "customer.registered", PayloadJSON: []byte(`{"name":"Ada","email":"ada@example.com"}`)},
		{Type: "customer.updated", PayloadJSON: []byte(`{"fields":{"name":"Ada Lovelace"}}`)},
	}); err != nil {
		t.Fatalf("append events: %v", err)
	}
	if _, err := app.Customer(ctx, "cus-1"); err == nil {
		t.Fatal("view populated before rebuild")
	}

	sub := app.Subscribe(event.AggregateCustomer, "cus-1")
	defer sub.Close()

	applied, err := app.RebuildViews(ctx, event.AggregateCustomer, "cus-1")
	if err != nil {
		t.Fatalf("RebuildViews: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	if !sub.AwaitUpdate(ctx, time.Second) {
		t.Fatal("rebuild did not notify subscribers")
	}

	customer, err := app.Customer(ctx, "cus-1")
	if err != nil {
		t.Fatalf("Customer: %v", err)
	}
	if customer.Name != "Ada Lovelace" {
		t.Fatalf("name = %q after rebuild, want %q", customer.Name, "Ada Lovelace")
	}

	// The checkpoint makes a second rebuild a no-op.
	applied, err = app.RebuildViews(ctx, event.AggregateCustomer, "cus-1")
	if err != nil {
		t.Fatalf("second RebuildViews: %v", err)
	}
	if applied != 0 {
		t.Fatalf("second rebuild applied = %d, want 0", applied)
	}
}

func TestRebuildViewsRequiresCheckpointStore(t *testing.T) {
	app, _ := newTestApp(t)
	if _, err := app.RebuildViews(context.Background(), event.AggregateCustomer, "cus-1"); err == nil {
		t.Fatal("expected error without a checkpoint store")
	}
}

func TestRegisterSideEffectReceivesEvents(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []event.Type
	app.RegisterSideEffect(event.AggregateInvoice, projection.HandlerFunc(func(ctx context.Context, evt event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, evt.Type)
		return nil
	}))

	decision, err := app.Submit(ctx, command.Command{
		Aggregate:   event.AggregateInvoice,
		AggregateID: "inv_1",
		Type:        "invoice.create",
		PayloadJSON: mustJSON(t, map[string]any{
			"customer_id":        "cus_1",
			"booking_id":         "bok_1",
			"product_variant_id": "var_1",
			"amount_cents":       4990,
			"due_date":           "2023-07-01",
		}),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if decision.Rejected() {
		t.Fatalf("unexpected rejections: %v", decision.Rejections)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "invoice.created" {
		t.Fatalf("side effect saw %v, want [invoice.created]", seen)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
