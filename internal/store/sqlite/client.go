package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"worldsim/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

const memoryDB = ":memory:"

var pragmas = []string{
	"PRAGMA busy_timeout = 30000;",
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
}

// Client keeps save slots and run history in a SQLite file.
type Client struct {
	db *sql.DB
}

// New opens the database named by a sqlite:// DSN, creating the file and
// its directory when missing.
func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}
	if driverDSN != memoryDB {
		path, _, _ := strings.Cut(driverDSN, "?")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if driverDSN == memoryDB {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
