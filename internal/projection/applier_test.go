package projection

import (
	"context"
	"testing"
	"time"

	"github.com/studiofit/membercore/internal/domain/contract"
	"github.com/studiofit/membercore/internal/domain/customer"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/invoice"
	"github.com/studiofit/membercore/internal/storage/memory"
	"github.com/studiofit/membercore/internal/view"
)

func testApplier(store *memory.Store) Applier {
	return Applier{Customer: store, Product: store, Contract: store, Invoice: store}
}

func testEvent(aggregate event.Aggregate, aggregateID string, seq uint64, eventType event.Type, payload string) event.Event {
	return event.Event{
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		Seq:         seq,
		Type:        eventType,
		Timestamp:   time.Date(2023, 5, 15, 8, 0, 0, 0, time.UTC),
		PayloadJSON: []byte(payload),
	}
}

func TestApplyCustomerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	applier := testApplier(store)

	events := []event.Event{
		testEvent(event.AggregateCustomer, "cus-1", 1, customer.EventTypeRegistered,
			`{"name":"Ada Lovelace","email":"ada@example.com","address":"10 Downing St"}`),
		testEvent(event.AggregateCustomer, "cus-1", 2, customer.EventTypeUpdated,
			`{"fields":{"email":"ada@analytical.example"}}`),
		testEvent(event.AggregateCustomer, "cus-1", 3, customer.EventTypeArchived, `{}`),
	}
	for _, evt := range events {
		if err := applier.Apply(ctx, evt); err != nil {
			t.Fatalf("Apply %s: %v", evt.Type, err)
		}
	}

	got, err := store.GetCustomer(ctx, "cus-1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if got.Email != "ada@analytical.example" || !got.Archived {
		t.Fatalf("customer view = %+v", got)
	}
}

func TestApplyContractLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	applier := testApplier(store)

	events := []event.Event{
		testEvent(event.AggregateContract, "ctr-1", 1, contract.EventTypeSigned,
			`{"customer_id":"cus-1","product_variant_id":"var-1","booking_id":"bkg-1","start_date":"2023-01-01","end_date":"2023-12-31"}`),
		testEvent(event.AggregateContract, "ctr-1", 2, contract.EventTypePaused,
			`{"from":"2023-06-01","to":"2023-06-30","days":29}`),
	}
	for _, evt := range events {
		if err := applier.Apply(ctx, evt); err != nil {
			t.Fatalf("Apply %s: %v", evt.Type, err)
		}
	}

	got, err := store.GetContract(ctx, "ctr-1")
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.Status != view.ContractStatusPaused || got.PausedFrom == nil {
		t.Fatalf("contract view = %+v", got)
	}

	resumed := testEvent(event.AggregateContract, "ctr-1", 3, contract.EventTypeResumed,
		`{"extension_days":29,"new_end_date":"2024-01-29"}`)
	if err := applier.Apply(ctx, resumed); err != nil {
		t.Fatalf("Apply resumed: %v", err)
	}
	got, err = store.GetContract(ctx, "ctr-1")
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.Status != view.ContractStatusActive || got.PausedFrom != nil {
		t.Fatalf("contract view = %+v after resume", got)
	}
	if got.EndDate.Format("2006-01-02") != "2024-01-29" {
		t.Fatalf("end date = %v after resume", got.EndDate)
	}

	byCustomer, err := store.ListContractsByCustomer(ctx, "cus-1")
	if err != nil {
		t.Fatalf("ListContractsByCustomer: %v", err)
	}
	if len(byCustomer) != 1 {
		t.Fatalf("contracts by customer = %d, want 1", len(byCustomer))
	}
}

func TestApplyInvoiceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	applier := testApplier(store)

	created := testEvent(event.AggregateInvoice, "inv-1", 1, invoice.EventTypeCreated,
		`{"customer_id":"cus-1","booking_id":"bkg-1","amount_cents":7900,"due_date":"2023-05-01"}`)
	if err := applier.Apply(ctx, created); err != nil {
		t.Fatalf("Apply created: %v", err)
	}
	paid := testEvent(event.AggregateInvoice, "inv-1", 2, invoice.EventTypePaid,
		`{"paid_at":"2023-04-20T10:00:00Z"}`)
	if err := applier.Apply(ctx, paid); err != nil {
		t.Fatalf("Apply paid: %v", err)
	}

	got, err := store.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Status != view.InvoiceStatusPaid || got.PaidAt == nil {
		t.Fatalf("invoice view = %+v", got)
	}
	if !got.PaidAt.Equal(time.Date(2023, 4, 20, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("paid at = %v", got.PaidAt)
	}

	open, err := store.ListInvoicesByStatus(ctx, view.InvoiceStatusOpen)
	if err != nil {
		t.Fatalf("ListInvoicesByStatus: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("open invoices = %d, want 0", len(open))
	}
}

func TestApplyIsIdempotentForSameEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	applier := testApplier(store)

	evt := testEvent(event.AggregateCustomer, "cus-1", 1, customer.EventTypeRegistered,
		`{"name":"Ada","email":"ada@example.com"}`)
	if err := applier.Apply(ctx, evt); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	first, err := store.GetCustomer(ctx, "cus-1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}

	if err := applier.Apply(ctx, evt); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	second, err := store.GetCustomer(ctx, "cus-1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if first != second {
		t.Fatalf("repeat apply changed view: %+v vs %+v", first, second)
	}
}

func TestApplyUnknownEventIsSkipped(t *testing.T) {
	ctx := context.Background()
	applier := testApplier(memory.NewStore())

	evt := testEvent(event.AggregateCustomer, "cus-1", 1, "customer.mystery", `{}`)
	if err := applier.Apply(ctx, evt); err != nil {
		t.Fatalf("Apply unknown event: %v", err)
	}
}
