package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration. Queries are chosen per
// driver because the column types differ.
type Migration struct {
	Queries     func(driver string) []string
	Description string
	Version     int
}

func blobType(driver string) string {
	if driver == DriverPostgres {
		return "BYTEA"
	}
	return "BLOB"
}

func timeType(driver string) string {
	if driver == DriverPostgres {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Cities",
		Queries: func(driver string) []string {
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cities (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at %[1]s NOT NULL,
					updated_at %[1]s NOT NULL
				)`, timeType(driver)),
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_cities_name ON cities(name)`,
			}
		},
	},
	{
		Version:     2,
		Description: "Save segments",
		Queries: func(driver string) []string {
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS segments (
					city_id TEXT NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
					type_id BIGINT NOT NULL,
					group_id BIGINT NOT NULL,
					instance_id BIGINT NOT NULL,
					data %s NOT NULL,
					updated_at %s NOT NULL,
					PRIMARY KEY (city_id, type_id, group_id, instance_id)
				)`, blobType(driver), timeType(driver)),
			}
		},
	},
	{
		Version:     3,
		Description: "Track simulated months per city",
		Queries: func(_ string) []string {
			return []string{
				`ALTER TABLE cities ADD COLUMN months BIGINT NOT NULL DEFAULT 0`,
			}
		},
	},
}

// Migrate applies all pending database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if s.driver == DriverPostgres {
		if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
			return fmt.Errorf("failed to create schema version table: %w", err)
		}
	}

	currentVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		for _, query := range migration.Queries(s.driver) {
			if _, execErr := tx.ExecContext(ctx, query); execErr != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", migration.Version, execErr)
			}
		}

		if setErr := s.setSchemaVersion(ctx, tx, migration.Version); setErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", setErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if s.driver == DriverPostgres {
		err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
		return version, err
	}
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	return version, err
}

func (s *Store) setSchemaVersion(ctx context.Context, tx *sql.Tx, version int) error {
	if s.driver == DriverPostgres {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, version)
		return err
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}
