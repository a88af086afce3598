package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

// ClaimDueOutbox implements storage.OutboxStore.
func (s *Store) ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]storage.OutboxEntry, 0, limit)
	for _, entry := range s.outbox {
		if entry.Status != storage.OutboxStatusPending {
			continue
		}
		if entry.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, entry)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].AggregateID != due[j].AggregateID {
			return due[i].AggregateID < due[j].AggregateID
		}
		return due[i].Seq < due[j].Seq
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// CompleteOutbox implements storage.OutboxStore.
func (s *Store) CompleteOutbox(ctx context.Context, aggregate event.Aggregate, aggregateID string, seq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		entry := &s.outbox[i]
		if entry.Aggregate != aggregate || entry.AggregateID != aggregateID || entry.Seq != seq {
			continue
		}
		entry.Status = storage.OutboxStatusApplied
		entry.UpdatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("outbox entry %s/%s seq %d: %w", aggregate, aggregateID, seq, storage.ErrNotFound)
}

// RetryOutbox implements storage.OutboxStore.
func (s *Store) RetryOutbox(ctx context.Context, entry storage.OutboxEntry, attempt int, nextAttemptAt time.Time, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		candidate := &s.outbox[i]
		if candidate.Aggregate != entry.Aggregate || candidate.AggregateID != entry.AggregateID || candidate.Seq != entry.Seq {
			continue
		}
		candidate.AttemptCount = attempt
		candidate.NextAttemptAt = nextAttemptAt
		candidate.LastError = lastError
		candidate.UpdatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("outbox entry %s/%s seq %d: %w", entry.Aggregate, entry.AggregateID, entry.Seq, storage.ErrNotFound)
}

// DeadLetterOutbox implements storage.OutboxStore.
func (s *Store) DeadLetterOutbox(ctx context.Context, entry storage.OutboxEntry, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		candidate := &s.outbox[i]
		if candidate.Aggregate != entry.Aggregate || candidate.AggregateID != entry.AggregateID || candidate.Seq != entry.Seq {
			continue
		}
		candidate.Status = storage.OutboxStatusDead
		candidate.LastError = lastError
		candidate.UpdatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("outbox entry %s/%s seq %d: %w", entry.Aggregate, entry.AggregateID, entry.Seq, storage.ErrNotFound)
}
