package storage

import (
	"context"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
)

// Outbox entry statuses.
const (
	OutboxStatusPending = "pending"
	OutboxStatusApplied = "applied"
	OutboxStatusDead    = "dead"
)

// OutboxEntry tracks one appended event awaiting projection apply. Entries
// are durable so view updates survive restarts and can be retried.
type OutboxEntry struct {
	Aggregate     event.Aggregate
	AggregateID   string
	Seq           uint64
	EventType     event.Type
	Status        string
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	UpdatedAt     time.Time
}

// OutboxStore persists the projection-apply outbox. Event stores enqueue one
// entry per appended event in the same transaction as the append.
type OutboxStore interface {
	// ClaimDueOutbox returns pending entries whose next attempt time has
	// passed, ordered by aggregate id then sequence, at most limit entries.
	ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error)

	// CompleteOutbox marks an entry applied.
	CompleteOutbox(ctx context.Context, aggregate event.Aggregate, aggregateID string, seq uint64) error

	// RetryOutbox schedules another attempt after a failure.
	RetryOutbox(ctx context.Context, entry OutboxEntry, attempt int, nextAttemptAt time.Time, lastError string) error

	// DeadLetterOutbox parks an entry whose retries are exhausted.
	DeadLetterOutbox(ctx context.Context, entry OutboxEntry, lastError string) error
}
