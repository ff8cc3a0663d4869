// Package postgres stores run records in a PostgreSQL table through pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"example.com/runlog/internal/logging"
)

// Migration is one versioned schema step. Up receives the quoted and the raw run table name.
type Migration struct {
	Version int
	Name    string
	Up      func(table, name string) string
}

// Migrations lists the schema history of the run table in order.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs",
		Up: func(table, _ string) string {
			return `CREATE TABLE IF NOT EXISTS ` + table + ` (
                start_date date NOT NULL,
                start_time time NOT NULL,
                miles numeric(6,1) NOT NULL,
                hours integer NOT NULL,
                minutes integer NOT NULL
            )`
		},
	},
	{
		Version: 2,
		Name:    "index_start",
		Up: func(table, name string) string {
			return `CREATE INDEX IF NOT EXISTS ` + indexName(name) + ` ON ` + table + ` (start_date, start_time)`
		},
	},
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
        table_name text NOT NULL,
        version integer NOT NULL,
        name text NOT NULL,
        applied_at timestamptz NOT NULL DEFAULT now(),
        PRIMARY KEY (table_name, version)
    )`

// Migrate applies pending migrations for the repository's table. Each step runs in its
// own transaction together with its version row.
func (r *Repository) Migrate(ctx context.Context) (int, error) {
	if _, err := r.pool.Exec(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var current int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations WHERE table_name = $1`, r.name).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	applied := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return applied, err
		}
		logging.Info().Int("version", m.Version).Str("name", m.Name).Str("table", r.name).Msg("migration applied")
		applied++
	}
	return applied, nil
}

func (r *Repository) apply(ctx context.Context, m Migration) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, m.Up(r.table, r.name)); err != nil {
		return fmt.Errorf("migration %d_%s: %w", m.Version, m.Name, err)
	}
	if _, err = tx.Exec(ctx,
		`INSERT INTO schema_migrations (table_name, version, name) VALUES ($1, $2, $3)`,
		r.name, m.Version, m.Name); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	return tx.Commit(ctx)
}

func indexName(table string) string {
	return pgx.Identifier{table + "_start_idx"}.Sanitize()
}
