package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"worldsim/internal/store"
)

func (c *Client) AppendHistory(ctx context.Context, rec store.HistoryRecord) error {
	cascaded, err := encodeList(rec.Cascaded)
	if err != nil {
		return fmt.Errorf("marshaling cascaded events: %w", err)
	}
	truncated, err := encodeList(rec.Truncated)
	if err != nil {
		return fmt.Errorf("marshaling truncated events: %w", err)
	}
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO history (run_id, tick, event_id, instance_id, parent_id, title, choice_index, choice_text, applied, cascaded, truncated, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = c.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Tick,
		rec.EventID,
		rec.InstanceID,
		rec.ParentID,
		rec.Title,
		rec.ChoiceIndex,
		rec.ChoiceText,
		rec.Applied,
		cascaded,
		truncated,
		recordedAt.Format(time.RFC3339Nano),
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
	WHERE (? = '' OR run_id = ?)
	ORDER BY id ASC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, query, runID, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []store.HistoryRecord
	for rows.Next() {
		var rec store.HistoryRecord
		var cascaded, truncated, recordedAt string
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
			&cascaded,
			&truncated,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if rec.Cascaded, err = decodeList(cascaded); err != nil {
			return nil, fmt.Errorf("decoding cascaded events: %w", err)
		}
		if rec.Truncated, err = decodeList(truncated); err != nil {
			return nil, fmt.Errorf("decoding truncated events: %w", err)
		}
		rec.RecordedAt = parseTime(recordedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}
