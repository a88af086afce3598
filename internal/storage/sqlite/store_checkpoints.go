package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/replay"
)

// Get implements replay.CheckpointStore.
func (s *Store) Get(ctx context.Context, aggregate event.Aggregate, aggregateID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	if s == nil || s.sqlDB == nil {
		return replay.Checkpoint{}, fmt.Errorf("storage is not configured")
	}

	var (
		lastSeq   int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT last_seq, updated_at FROM replay_checkpoints WHERE aggregate_type = ? AND aggregate_id = ?`,
		string(aggregate), aggregateID,
	).Scan(&lastSeq, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return replay.Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}

	return replay.Checkpoint{
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		LastSeq:     uint64(lastSeq),
		UpdatedAt:   fromMillis(updatedAt),
	}, nil
}

// Save implements replay.CheckpointStore.
func (s *Store) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	updatedAt := checkpoint.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO replay_checkpoints (aggregate_type, aggregate_id, last_seq, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (aggregate_type, aggregate_id) DO UPDATE SET
    last_seq = excluded.last_seq,
    updated_at = excluded.updated_at`,
		string(checkpoint.Aggregate), checkpoint.AggregateID, int64(checkpoint.LastSeq), toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
