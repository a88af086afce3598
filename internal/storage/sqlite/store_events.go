package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/storage"
)

// AppendEvents atomically appends a batch of events for one aggregate
// instance, enqueueing one projection-apply outbox entry per event in the
// same transaction.
func (s *Store) AppendEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, expectedVersion uint64, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return nil, fmt.Errorf("aggregate id is required")
	}
	if len(events) == 0 {
		return nil, nil
	}

	if s.eventRegistry != nil {
		vetted := make([]event.Event, 0, len(events))
		for _, evt := range events {
			evt.Aggregate = aggregate
			evt.AggregateID = aggregateID
			validated, err := s.eventRegistry.ValidateForAppend(evt)
			if err != nil {
				return nil, err
			}
			vetted = append(vetted, validated)
		}
		events = vetted
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current uint64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_type = ? AND aggregate_id = ?`,
		string(aggregate), aggregateID,
	).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}
	if current != expectedVersion {
		return nil, fmt.Errorf("append %s/%s at version %d, current %d: %w",
			aggregate, aggregateID, expectedVersion, current, storage.ErrVersionConflict)
	}

	stored := make([]event.Event, 0, len(events))
	for i, evt := range events {
		evt.Aggregate = aggregate
		evt.AggregateID = aggregateID
		evt.Seq = expectedVersion + uint64(i) + 1
		if evt.SchemaRev <= 0 {
			evt.SchemaRev = 1
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		if len(evt.PayloadJSON) == 0 {
			evt.PayloadJSON = []byte("{}")
		}

		hash, err := storage.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("compute event hash: %w", err)
		}
		evt.Hash = hash

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (
    aggregate_type, aggregate_id, seq, event_type, schema_rev, timestamp, event_hash, payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(evt.Aggregate), evt.AggregateID, int64(evt.Seq), string(evt.Type),
			evt.SchemaRev, toMillis(evt.Timestamp), evt.Hash, evt.PayloadJSON,
		); err != nil {
			// A primary key collision means a concurrent writer claimed the
			// sequence after the version read.
			if isConstraintError(err) {
				return nil, fmt.Errorf("append %s/%s seq %d: %w",
					aggregate, aggregateID, evt.Seq, storage.ErrVersionConflict)
			}
			return nil, fmt.Errorf("append event: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projection_apply_outbox (
    aggregate_type, aggregate_id, seq, event_type, status, attempt_count, next_attempt_at, last_error, updated_at
) VALUES (?, ?, ?, ?, ?, 0, ?, '', ?)`,
			string(evt.Aggregate), evt.AggregateID, int64(evt.Seq), string(evt.Type),
			storage.OutboxStatusPending, toMillis(evt.Timestamp), toMillis(evt.Timestamp),
		); err != nil {
			return nil, fmt.Errorf("enqueue outbox entry: %w", err)
		}

		stored = append(stored, evt)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ListEvents returns events with seq > afterSeq in sequence order, at most
// limit entries.
func (s *Store) ListEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error) {
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
		`SELECT seq, event_type, schema_rev, timestamp, event_hash, payload_json
FROM events
WHERE aggregate_type = ? AND aggregate_id = ? AND seq > ?
ORDER BY seq ASC
LIMIT ?`,
		string(aggregate), strings.TrimSpace(aggregateID), int64(afterSeq), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			seq       int64
			eventType string
			schemaRev int
			timestamp int64
			hash      string
			payload   []byte
		)
		if err := rows.Scan(&seq, &eventType, &schemaRev, &timestamp, &hash, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event.Event{
			Aggregate:   aggregate,
			AggregateID: aggregateID,
			Seq:         uint64(seq),
			Type:        event.Type(eventType),
			SchemaRev:   schemaRev,
			Timestamp:   fromMillis(timestamp),
			Hash:        hash,
			PayloadJSON: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// LatestSeq returns the last assigned sequence number, or 0 when no events
// exist for the instance.
func (s *Store) LatestSeq(ctx context.Context, aggregate event.Aggregate, aggregateID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var latest uint64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_type = ? AND aggregate_id = ?`,
		string(aggregate), strings.TrimSpace(aggregateID),
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("read latest seq: %w", err)
	}
	return latest, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
