package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/studiofit/membercore/internal/domain/event"
)

// eventDigest is the canonical form hashed to derive an event identity.
type eventDigest struct {
	Aggregate   event.Aggregate `json:"aggregate"`
	AggregateID string          `json:"aggregate_id"`
	Seq         uint64          `json:"seq"`
	Type        event.Type      `json:"type"`
	SchemaRev   int             `json:"schema_rev"`
	Timestamp   int64           `json:"timestamp_ms"`
	PayloadJSON json.RawMessage `json:"payload"`
}

// EventHash computes the content-addressed identity of an event. The hash
// covers the envelope and payload but not the hash field itself.
func EventHash(evt event.Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	canonical, err := json.Marshal(eventDigest{
		Aggregate:   evt.Aggregate,
		AggregateID: evt.AggregateID,
		Seq:         evt.Seq,
		Type:        evt.Type,
		SchemaRev:   evt.SchemaRev,
		Timestamp:   evt.Timestamp.UTC().UnixMilli(),
		PayloadJSON: payload,
	})
	if err != nil {
		return "", fmt.Errorf("marshal event digest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
