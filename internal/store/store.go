package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Store keeps named save slots and the history of resolved events across
// runs. Payloads are encoded snapshots and are stored opaquely.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveSnapshot(ctx context.Context, slot string, tick int64, payload []byte) error
	LoadSnapshot(ctx context.Context, slot string) (*Snapshot, error)
	ListSnapshots(ctx context.Context) ([]SnapshotSummary, error)

	AppendHistory(ctx context.Context, rec HistoryRecord) error
	ListHistory(ctx context.Context, runID string, limit int) ([]HistoryRecord, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
