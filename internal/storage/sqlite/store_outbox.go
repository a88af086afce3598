package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

// ClaimDueOutbox implements storage.OutboxStore.
func (s *Store) ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT aggregate_type, aggregate_id, seq, event_type, status, attempt_count, next_attempt_at, last_error, updated_at
FROM projection_apply_outbox
WHERE status = ? AND next_attempt_at <= ?
ORDER BY aggregate_id ASC, seq ASC
LIMIT ?`,
		storage.OutboxStatusPending, toMillis(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []storage.OutboxEntry
	for rows.Next() {
		var (
			aggregateType string
			aggregateID   string
			seq           int64
			eventType     string
			status        string
			attemptCount  int
			nextAttemptAt int64
			lastError     string
			updatedAt     int64
		)
		if err := rows.Scan(&aggregateType, &aggregateID, &seq, &eventType, &status, &attemptCount, &nextAttemptAt, &lastError, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, storage.OutboxEntry{
			Aggregate:     event.Aggregate(aggregateType),
			AggregateID:   aggregateID,
			Seq:           uint64(seq),
			EventType:     event.Type(eventType),
			Status:        status,
			AttemptCount:  attemptCount,
			NextAttemptAt: fromMillis(nextAttemptAt),
			LastError:     lastError,
			UpdatedAt:     fromMillis(updatedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read outbox entries: %w", err)
	}
	return entries, nil
}

// CompleteOutbox implements storage.OutboxStore.
func (s *Store) CompleteOutbox(ctx context.Context, aggregate event.Aggregate, aggregateID string, seq uint64) error {
	return s.updateOutbox(ctx,
		`UPDATE projection_apply_outbox SET status = ?, updated_at = ?
WHERE aggregate_type = ? AND aggregate_id = ? AND seq = ?`,
		storage.OutboxStatusApplied, toMillis(time.Now()),
		string(aggregate), aggregateID, int64(seq),
	)
}

// RetryOutbox implements storage.OutboxStore.
func (s *Store) RetryOutbox(ctx context.Context, entry storage.OutboxEntry, attempt int, nextAttemptAt time.Time, lastError string) error {
	return s.updateOutbox(ctx,
		`UPDATE projection_apply_outbox SET attempt_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
WHERE aggregate_type = ? AND aggregate_id = ? AND seq = ?`,
		attempt, toMillis(nextAttemptAt), lastError, toMillis(time.Now()),
		string(entry.Aggregate), entry.AggregateID, int64(entry.Seq),
	)
}

// DeadLetterOutbox implements storage.OutboxStore.
func (s *Store) DeadLetterOutbox(ctx context.Context, entry storage.OutboxEntry, lastError string) error {
	return s.updateOutbox(ctx,
		`UPDATE projection_apply_outbox SET status = ?, last_error = ?, updated_at = ?
WHERE aggregate_type = ? AND aggregate_id = ? AND seq = ?`,
		storage.OutboxStatusDead, lastError, toMillis(time.Now()),
		string(entry.Aggregate), entry.AggregateID, int64(entry.Seq),
	)
}

func (s *Store) updateOutbox(ctx context.Context, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update outbox entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update outbox entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outbox entry: %w", storage.ErrNotFound)
	}
	return nil
}
