package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/db"
)

// Migration is one SQL file from the migrations directory
type Migration struct {
	Version string
	Path    string
}

// Migrator manages database migrations
type Migrator struct {
	db     *db.PostgresDB
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(database *db.PostgresDB, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     database,
		logger: logger.With().Str("component", "migrator").Logger(),
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1);`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Apply executes one migration and records it in the same transaction
func (m *Migrator) Apply(ctx context.Context, migration Migration) error {
	applied, err := m.isMigrationApplied(ctx, migration.Version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug().Str("version", migration.Version).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := os.ReadFile(migration.Path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	err = m.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration execution: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
			migration.Version, time.Now()); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration %s: %w", filepath.Base(migration.Path), err)
	}

	m.logger.Info().Str("version", migration.Version).Str("file", migration.Path).Msg("Migration applied")
	return nil
}

// MigrateFromDirectory applies every pending SQL file in a directory in version order
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) error {
	migrations, err := Discover(dirPath)
	if err != nil {
		return err
	}

	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	for _, migration := range migrations {
		if err := m.Apply(ctx, migration); err != nil {
			return err
		}
	}
	return nil
}

// Discover lists the .sql files of a directory sorted by name.
// The version is the file name prefix before the first underscore ("001_init.sql" => "001").
func Discover(dirPath string) ([]Migration, error) {
	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var names []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		version := strings.SplitN(strings.TrimSuffix(name, ".sql"), "_", 2)[0]
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", prev, name, version)
		}
		seen[version] = name
		out = append(out, Migration{Version: version, Path: filepath.Join(dirPath, name)})
	}
	return out, nil
}
