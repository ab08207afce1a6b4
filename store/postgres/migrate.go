package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the embedded migrations that have not run yet, in file
// order, each inside its own transaction. Applied versions are tracked in
// {prefix}schema_migrations. The {{prefix}} token in the SQL is substituted
// with the store's table prefix before execution.
func (s *Store) Migrate(ctx context.Context) error {
	track := s.table("schema_migrations")
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (version text PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())`, track))
	if err != nil {
		return fmt.Errorf("store/postgres: create migrations table: %w", err)
	}

	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("store/postgres: list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")

		var applied bool
		err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE version = $1)`, track), version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("store/postgres: check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		raw, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("store/postgres: read migration %s: %w", version, err)
		}
		stmt := strings.ReplaceAll(string(raw), "{{prefix}}", s.prefix)

		tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return fmt.Errorf("store/postgres: begin migration %s: %w", version, err)
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("store/postgres: apply migration %s: %w", version, err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, track), version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("store/postgres: record migration %s: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("store/postgres: commit migration %s: %w", version, err)
		}
	}
	return nil
}
