package postgres

import (
	"context"
	"fmt"
)

// All statements run in one Exec call, which PostgreSQL executes as a single
// implicit transaction.
const ddl = `
CREATE TABLE IF NOT EXISTS snapshots (
    slot     TEXT PRIMARY KEY,
    tick     BIGINT NOT NULL,
    payload  BYTEA NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS history (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    run_id       TEXT NOT NULL,
    tick         BIGINT NOT NULL,
    event_id     TEXT NOT NULL,
    instance_id  TEXT NOT NULL,
    parent_id    TEXT DEFAULT '',
    title        TEXT DEFAULT '',
    choice_index INTEGER NOT NULL,
    choice_text  TEXT DEFAULT '',
    applied      INTEGER DEFAULT 0,
    cascaded     TEXT[] DEFAULT '{}',
    truncated    TEXT[] DEFAULT '{}',
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_run ON history (run_id, id);
CREATE INDEX IF NOT EXISTS idx_history_event ON history (event_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
