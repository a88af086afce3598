package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/replay"
	"github.com/studiofit/membercore/internal/storage"
)

func openEventsStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenEvents(filepath.Join(t.TempDir(), "events.db"), nil)
	if err != nil {
		t.Fatalf("OpenEvents: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func sampleEvents(n int) []event.Event {
	events := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, event.Event{
			Type:        "contract.signed",
			PayloadJSON: []byte(`{"customer_id":"cus-1"}`),
		})
	}
	return events
}

func TestAppendEventsAssignsSequences(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	stored, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(2))
	if err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if len(stored) != 2 || stored[0].Seq != 1 || stored[1].Seq != 2 {
		t.Fatalf("stored = %+v, want seqs 1 and 2", stored)
	}
	for _, evt := range stored {
		if evt.Hash == "" {
			t.Fatalf("event %d has no hash", evt.Seq)
		}
		if evt.SchemaRev != 1 {
			t.Fatalf("event %d schema rev = %d, want 1", evt.Seq, evt.SchemaRev)
		}
	}

	latest, err := store.LatestSeq(ctx, event.AggregateContract, "ctr-1")
	if err != nil {
		t.Fatalf("LatestSeq: %v", err)
	}
	if latest != 2 {
		t.Fatalf("latest seq = %d, want 2", latest)
	}
}

func TestAppendEventsVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	if _, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(1)); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	// Appending at the stale version must fail without persisting anything.
	_, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(1))
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("AppendEvents error = %v, want %v", err, storage.ErrVersionConflict)
	}

	latest, err := store.LatestSeq(ctx, event.AggregateContract, "ctr-1")
	if err != nil {
		t.Fatalf("LatestSeq: %v", err)
	}
	if latest != 1 {
		t.Fatalf("latest seq = %d after conflict, want 1", latest)
	}
}

func TestAppendEventsIndependentStreams(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	if _, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(1)); err != nil {
		t.Fatalf("AppendEvents ctr-1: %v", err)
	}
	stored, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-2", 0, sampleEvents(1))
	if err != nil {
		t.Fatalf("AppendEvents ctr-2: %v", err)
	}
	if stored[0].Seq != 1 {
		t.Fatalf("ctr-2 first seq = %d, want 1", stored[0].Seq)
	}
}

func TestListEventsPaged(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	if _, err := store.AppendEvents(ctx, event.AggregateInvoice, "inv-1", 0, sampleEvents(5)); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	page, err := store.ListEvents(ctx, event.AggregateInvoice, "inv-1", 0, 2)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 1 || page[1].Seq != 2 {
		t.Fatalf("first page = %+v", page)
	}

	page, err = store.ListEvents(ctx, event.AggregateInvoice, "inv-1", 2, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(page) != 3 || page[0].Seq != 3 {
		t.Fatalf("second page = %+v", page)
	}

	page, err = store.ListEvents(ctx, event.AggregateInvoice, "inv-1", 5, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("page past end = %+v", page)
	}
}

func TestAppendEventsEnqueuesOutbox(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	stored, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(2))
	if err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	due, err := store.ClaimDueOutbox(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due outbox entries = %d, want 2", len(due))
	}
	if due[0].Seq != 1 || due[1].Seq != 2 {
		t.Fatalf("outbox order = %+v", due)
	}

	if err := store.CompleteOutbox(ctx, event.AggregateContract, "ctr-1", stored[0].Seq); err != nil {
		t.Fatalf("CompleteOutbox: %v", err)
	}
	due, err = store.ClaimDueOutbox(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	if len(due) != 1 || due[0].Seq != 2 {
		t.Fatalf("outbox after complete = %+v", due)
	}
}

func TestOutboxRetryAndDeadLetter(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	if _, err := store.AppendEvents(ctx, event.AggregateContract, "ctr-1", 0, sampleEvents(1)); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	due, err := store.ClaimDueOutbox(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	entry := due[0]

	retryAt := time.Now().UTC().Add(time.Hour)
	if err := store.RetryOutbox(ctx, entry, 1, retryAt, "view store unavailable"); err != nil {
		t.Fatalf("RetryOutbox: %v", err)
	}
	due, err = store.ClaimDueOutbox(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("entry due before retry time: %+v", due)
	}
	due, err = store.ClaimDueOutbox(ctx, retryAt.Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	if len(due) != 1 || due[0].AttemptCount != 1 || due[0].LastError == "" {
		t.Fatalf("entry after retry = %+v", due)
	}

	if err := store.DeadLetterOutbox(ctx, entry, "gave up"); err != nil {
		t.Fatalf("DeadLetterOutbox: %v", err)
	}
	due, err = store.ClaimDueOutbox(ctx, retryAt.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("ClaimDueOutbox: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("dead entry still claimable: %+v", due)
	}
}

func TestReplayCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openEventsStore(t)

	if _, err := store.Get(ctx, event.AggregateContract, "ctr-1"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("Get error = %v, want %v", err, replay.ErrCheckpointNotFound)
	}

	checkpoint := replay.Checkpoint{
		Aggregate:   event.AggregateContract,
		AggregateID: "ctr-1",
		LastSeq:     7,
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := store.Save(ctx, checkpoint); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, event.AggregateContract, "ctr-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastSeq != 7 {
		t.Fatalf("checkpoint = %+v, want last seq 7", got)
	}

	checkpoint.LastSeq = 9
	if err := store.Save(ctx, checkpoint); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	got, err = store.Get(ctx, event.AggregateContract, "ctr-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastSeq != 9 {
		t.Fatalf("checkpoint = %+v after update, want last seq 9", got)
	}
}

var _ storage.EventStore = (*Store)(nil)
var _ storage.OutboxStore = (*Store)(nil)
var _ replay.CheckpointStore = (*Store)(nil)
