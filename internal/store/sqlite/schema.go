package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS snapshots (
	slot     TEXT PRIMARY KEY,
	tick     INTEGER NOT NULL,
	payload  BLOB NOT NULL,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	tick         INTEGER NOT NULL,
	event_id     TEXT NOT NULL,
	instance_id  TEXT NOT NULL,
	parent_id    TEXT DEFAULT '',
	title        TEXT DEFAULT '',
	choice_index INTEGER NOT NULL,
	choice_text  TEXT DEFAULT '',
	applied      INTEGER DEFAULT 0,
	cascaded     TEXT DEFAULT '[]',
	truncated    TEXT DEFAULT '[]',
	recorded_at  TEXT NOT NULL
);

-- listing by run, newest last
CREATE INDEX IF NOT EXISTS idx_history_run ON history (run_id, id);
CREATE INDEX IF NOT EXISTS idx_history_event ON history (event_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
