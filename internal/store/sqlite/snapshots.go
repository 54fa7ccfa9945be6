package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"worldsim/internal/store"
)

func (c *Client) SaveSnapshot(ctx context.Context, slot string, tick int64, payload []byte) error {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return fmt.Errorf("saving snapshot: slot is required")
	}
	query := `
	INSERT INTO snapshots (slot, tick, payload, saved_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (slot) DO UPDATE SET
		tick = excluded.tick,
		payload = excluded.payload,
		saved_at = excluded.saved_at
	`
	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := c.db.ExecContext(ctx, query, slot, tick, payload, savedAt); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", slot, err)
	}
	return nil
}

func (c *Client) LoadSnapshot(ctx context.Context, slot string) (*store.Snapshot, error) {
	row := c.db.QueryRowContext(ctx, `SELECT slot, tick, payload, saved_at FROM snapshots WHERE slot = ?`, strings.TrimSpace(slot))

	var snap store.Snapshot
	var savedAt string
	if err := row.Scan(&snap.Slot, &snap.Tick, &snap.Payload, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading snapshot %s: %w", slot, store.ErrNotFound)
		}
		return nil, fmt.Errorf("loading snapshot %s: %w", slot, err)
	}
	snap.SavedAt = parseTime(savedAt)
	return &snap, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.SnapshotSummary, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT slot, tick, length(payload), saved_at FROM snapshots ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []store.SnapshotSummary
	for rows.Next() {
		var s store.SnapshotSummary
		var savedAt string
		if err := rows.Scan(&s.Slot, &s.Tick, &s.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		s.SavedAt = parseTime(savedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
