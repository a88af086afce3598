package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiofit/membercore/internal/storage"
)

const (
	workerPollInterval = 500 * time.Millisecond
	workerClaimLimit   = 50
	workerBaseBackoff  = time.Second
	workerMaxBackoff   = 5 * time.Minute
	// workerMaxAttempts bounds outbox retries before an entry is parked in
	// the dead-letter state for operator inspection.
	workerMaxAttempts = 8
)

// Worker drains the projection-apply outbox: entries the synchronous publish
// path failed to apply, or that were pending when the process stopped. Each
// entry's event is reloaded from the journal and re-applied with exponential
// backoff between attempts.
type Worker struct {
	events   storage.EventStore
	outbox   storage.OutboxStore
	applier  Applier
	notifier *Notifier
	now      func() time.Time
}

// NewWorker creates an outbox worker. The notifier is optional.
func NewWorker(events storage.EventStore, outbox storage.OutboxStore, applier Applier, notifier *Notifier) (*Worker, error) {
	if events == nil {
		return nil, errors.New("event store is required")
	}
	if outbox == nil {
		return nil, errors.New("outbox store is required")
	}
	return &Worker{
		events:   events,
		outbox:   outbox,
		applier:  applier,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Run polls the outbox until the context is cancelled. It is meant to run in
// an errgroup alongside the rest of the process.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(workerPollInterval)
	defer ticker.Stop()

	// Drain immediately so a restart catches up on work left pending by a
	// previous run before the first tick.
	for {
		if _, err := w.DrainOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("outbox drain failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunGroup starts the worker inside the given errgroup.
func (w *Worker) RunGroup(ctx context.Context, group *errgroup.Group) {
	group.Go(func() error {
		err := w.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// DrainOnce claims due outbox entries and applies them, returning the number
// of entries applied successfully.
func (w *Worker) DrainOnce(ctx context.Context) (int, error) {
	entries, err := w.outbox.ClaimDueOutbox(ctx, w.now().UTC(), workerClaimLimit)
	if err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}

	applied := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := w.applyEntry(ctx, entry); err != nil {
			w.recordFailure(ctx, entry, err)
			continue
		}
		applied++
		if err := w.outbox.CompleteOutbox(ctx, entry.Aggregate, entry.AggregateID, entry.Seq); err != nil {
			log.Printf("outbox complete failed aggregate=%s aggregate_id=%s seq=%d: %v",
				entry.Aggregate, entry.AggregateID, entry.Seq, err)
		}
		if w.notifier != nil {
			w.notifier.Notify(entry.Aggregate, entry.AggregateID)
		}
	}
	return applied, nil
}

func (w *Worker) applyEntry(ctx context.Context, entry storage.OutboxEntry) error {
	events, err := w.events.ListEvents(ctx, entry.Aggregate, entry.AggregateID, entry.Seq-1, 1)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if len(events) == 0 || events[0].Seq != entry.Seq {
		return fmt.Errorf("event %s/%s seq %d missing from journal", entry.Aggregate, entry.AggregateID, entry.Seq)
	}
	return w.applier.Apply(ctx, events[0])
}

func (w *Worker) recordFailure(ctx context.Context, entry storage.OutboxEntry, applyErr error) {
	attempt := entry.AttemptCount + 1
	if attempt >= workerMaxAttempts {
		log.Printf("outbox entry dead-lettered aggregate=%s aggregate_id=%s seq=%d attempts=%d: %v",
			entry.Aggregate, entry.AggregateID, entry.Seq, attempt, applyErr)
		if err := w.outbox.DeadLetterOutbox(ctx, entry, applyErr.Error()); err != nil {
			log.Printf("outbox dead-letter failed aggregate=%s aggregate_id=%s seq=%d: %v",
				entry.Aggregate, entry.AggregateID, entry.Seq, err)
		}
		return
	}

	nextAttempt := w.now().UTC().Add(backoffDelay(attempt))
	if err := w.outbox.RetryOutbox(ctx, entry, attempt, nextAttempt, applyErr.Error()); err != nil {
		log.Printf("outbox retry schedule failed aggregate=%s aggregate_id=%s seq=%d: %v",
			entry.Aggregate, entry.AggregateID, entry.Seq, err)
	}
}

// backoffDelay doubles per attempt, capped at workerMaxBackoff.
func backoffDelay(attempt int) time.Duration {
	delay := workerBaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= workerMaxBackoff {
			return workerMaxBackoff
		}
	}
	return delay
}
