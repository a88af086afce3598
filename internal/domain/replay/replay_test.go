package replay_test

import (
	"context"
	"testing"

	"github.com/studiofit/membercore/internal/domain/contract"
	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/replay"
	"github.com/studiofit/membercore/internal/storage/memory"
)

type contractApplier struct{}

func (contractApplier) Apply(_ context.Context, state any, evt event.Event) (any, error) {
	current, _ := state.(contract.State)
	return contract.Fold(current, evt), nil
}

func seedContractEvents(t *testing.T, store *memory.Store, aggregateID string) {
	t.Helper()
	ctx := context.Background()
	events := []event.Event{
		{Type: contract.EventTypeSigned, PayloadJSON: []byte(`{"customer_id":"cus-1","product_variant_id":"var-1","booking_id":"bkg-1","start_date":"2023-01-01","end_date":"2023-12-31"}`)},
		{Type: contract.EventTypePaused, PayloadJSON: []byte(`{"from":"2023-06-01","to":"2023-06-30","days":29}`)},
		{Type: contract.EventTypeResumed, PayloadJSON: []byte(`{"extension_days":29,"new_end_date":"2024-01-29"}`)},
	}
	if _, err := store.AppendEvents(ctx, event.AggregateContract, aggregateID, 0, events); err != nil {
		t.Fatalf("append events: %v", err)
	}
}

func TestReplayAppliesAllEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedContractEvents(t, store, "ctr-1")

	result, err := replay.Replay(ctx, store, store, contractApplier{}, event.AggregateContract, "ctr-1", contract.State{}, replay.Options{PageSize: 2})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if result.Applied != 3 || result.LastSeq != 3 {
		t.Fatalf("result = %+v, want 3 applied up to seq 3", result)
	}
	state, ok := result.State.(contract.State)
	if !ok {
		t.Fatalf("state type = %T", result.State)
	}
	if state.Status != contract.StatusActive {
		t.Fatalf("status = %s after replay, want %s", state.Status, contract.StatusActive)
	}
}

func TestReplayResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedContractEvents(t, store, "ctr-1")

	first, err := replay.Replay(ctx, store, store, contractApplier{}, event.AggregateContract, "ctr-1", contract.State{}, replay.Options{UntilSeq: 2})
	if err != nil {
		t.Fatalf("first Replay: %v", err)
	}
	if first.Applied != 2 {
		t.Fatalf("first applied = %d, want 2", first.Applied)
	}

	second, err := replay.Replay(ctx, store, store, contractApplier{}, event.AggregateContract, "ctr-1", first.State, replay.Options{})
	if err != nil {
		t.Fatalf("second Replay: %v", err)
	}
	if second.Applied != 1 || second.LastSeq != 3 {
		t.Fatalf("second result = %+v, want 1 applied up to seq 3", second)
	}
}

func TestReplayValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	if _, err := replay.Replay(ctx, nil, store, contractApplier{}, event.AggregateContract, "ctr-1", contract.State{}, replay.Options{}); err != replay.ErrEventStoreRequired {
		t.Fatalf("error = %v, want %v", err, replay.ErrEventStoreRequired)
	}
	if _, err := replay.Replay(ctx, store, nil, contractApplier{}, event.AggregateContract, "ctr-1", contract.State{}, replay.Options{}); err != replay.ErrCheckpointStoreRequired {
		t.Fatalf("error = %v, want %v", err, replay.ErrCheckpointStoreRequired)
	}
	if _, err := replay.Replay(ctx, store, store, nil, event.AggregateContract, "ctr-1", contract.State{}, replay.Options{}); err != replay.ErrApplierRequired {
		t.Fatalf("error = %v, want %v", err, replay.ErrApplierRequired)
	}
	if _, err := replay.Replay(ctx, store, store, contractApplier{}, event.AggregateContract, "  ", contract.State{}, replay.Options{}); err != replay.ErrAggregateIDRequired {
		t.Fatalf("error = %v, want %v", err, replay.ErrAggregateIDRequired)
	}
}

var _ replay.CheckpointStore = (*memory.Store)(nil)
