package postgres

import (
	"context"
	"fmt"
	"time"

	"worldsim/internal/store"
)

func (c *Client) AppendHistory(ctx context.Context, rec store.HistoryRecord) error {
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	query := `
INSERT INTO history (run_id, tick, event_id, instance_id, parent_id, title, choice_index, choice_text, applied, cascaded, truncated, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, '{}'::text[]), COALESCE($11, '{}'::text[]), $12)
`
	_, err := c.pool.Exec(ctx, query,
		rec.RunID,
		rec.Tick,
		rec.EventID,
		rec.InstanceID,
		rec.ParentID,
		rec.Title,
		rec.ChoiceIndex,
		rec.ChoiceText,
		rec.Applied,
		rec.Cascaded,
		rec.Truncated,
		recordedAt,
	)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// ListHistory returns records oldest first. An empty runID lists every run;
// limit <= 0 means no limit.
func (c *Client) ListHistory(ctx context.Context, runID string, limit int) ([]store.HistoryRecord, error) {
	query := `
SELECT run_id, tick, event_id, instance_id, parent_id, title, choice_index, choice_text, applied, cascaded, truncated, recorded_at
FROM history
WHERE ($1 = '' OR run_id = $1)
ORDER BY id ASC
LIMIT NULLIF($2, 0)
`
	if limit < 0 {
		limit = 0
	}
	rows, err := c.pool.Query(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []store.HistoryRecord
	for rows.Next() {
		var rec store.HistoryRecord
		err := rows.Scan(
			&rec.RunID,
			&rec.Tick,
			&rec.EventID,
			&rec.InstanceID,
			&rec.ParentID,
			&rec.Title,
			&rec.ChoiceIndex,
			&rec.ChoiceText,
			&rec.Applied,
			&rec.Cascaded,
			&rec.Truncated,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if len(rec.Cascaded) == 0 {
			rec.Cascaded = nil
		}
		if len(rec.Truncated) == 0 {
			rec.Truncated = nil
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}
