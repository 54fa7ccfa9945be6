package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"worldsim/internal/store"
)

func (c *Client) SaveSnapshot(ctx context.Context, slot string, tick int64, payload []byte) error {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return fmt.Errorf("saving snapshot: slot is required")
	}
	query := `
INSERT INTO snapshots (slot, tick, payload, saved_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (slot) DO UPDATE SET
    tick = EXCLUDED.tick,
    payload = EXCLUDED.payload,
    saved_at = EXCLUDED.saved_at
`
	if _, err := c.pool.Exec(ctx, query, slot, tick, payload); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", slot, err)
	}
	return nil
}

func (c *Client) LoadSnapshot(ctx context.Context, slot string) (*store.Snapshot, error) {
	var snap store.Snapshot
	err := c.pool.QueryRow(ctx,
		`SELECT slot, tick, payload, saved_at FROM snapshots WHERE slot = $1`,
		strings.TrimSpace(slot),
	).Scan(&snap.Slot, &snap.Tick, &snap.Payload, &snap.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loading snapshot %s: %w", slot, store.ErrNotFound)
		}
		return nil, fmt.Errorf("loading snapshot %s: %w", slot, err)
	}
	return &snap, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.SnapshotSummary, error) {
	rows, err := c.pool.Query(ctx, `SELECT slot, tick, octet_length(payload), saved_at FROM snapshots ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []store.SnapshotSummary
	for rows.Next() {
		var s store.SnapshotSummary
		if err := rows.Scan(&s.Slot, &s.Tick, &s.Size, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}
