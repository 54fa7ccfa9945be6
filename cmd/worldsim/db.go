package main

import (
	"context"
	"fmt"
	"strings"

	"worldsim/internal/config"
	"worldsim/internal/store"
	"worldsim/internal/store/postgres"
	"worldsim/internal/store/sqlite"
)

// openStore picks the backend from the DSN scheme and ensures its schema.
func openStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	var (
		db  store.Store
		err error
	)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("database.dsn is not configured")
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
