package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is a single versioned schema change owned by a domain
// package.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationSet groups a package's ordered migrations under a unique
// component name. Versions are tracked per component.
type MigrationSet struct {
	Component  string
	Migrations []Migration
}

// RunMigrations applies all pending migrations from the given sets,
// each inside its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB, sets ...MigrationSet) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			component VARCHAR(100) NOT NULL,
			version INT NOT NULL,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (component, version)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, set := range sets {
		applied, err := appliedVersions(ctx, db, set.Component)
		if err != nil {
			return err
		}

		for _, migration := range set.Migrations {
			if applied[migration.Version] {
				continue
			}

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to start transaction: %w", err)
			}

			if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to execute %s migration %d: %w", set.Component, migration.Version, err)
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (component, version, description) VALUES ($1, $2, $3)",
				set.Component, migration.Version, migration.Description,
			); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to record %s migration %d: %w", set.Component, migration.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit %s migration %d: %w", set.Component, migration.Version, err)
			}
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB, component string) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT version FROM schema_migrations WHERE component = $1 ORDER BY version", component)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
