package postgres

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationFile represents a migration file
type MigrationFile struct {
	Version string
	Name    string
	SQL     string
}

// MigrationStatus reports whether a migration has been applied
type MigrationStatus struct {
	Version  string `db:"version"`
	Name     string `db:"-"`
	Applied  bool   `db:"-"`
	Checksum string `db:"checksum"`
}

// Migrator handles database schema migrations
type Migrator struct {
	db    *sqlx.DB
	files fs.FS
}

// NewMigrator creates a migrator over the embedded migrations
func NewMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{db: db, files: migrationFS}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Up executes all pending migrations in version order. A migration whose
// content changed after it was applied is an error.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	files, err := m.findMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}

	var ran []string
	for _, file := range files {
		if sum, ok := applied[file.Version]; ok {
			if sum != checksum(file.SQL) {
				return ran, fmt.Errorf("migration %s was modified after being applied", file.Version)
			}
			continue
		}
		if err := m.apply(ctx, file); err != nil {
			return ran, fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
		ran = append(ran, file.Version)
	}
	return ran, nil
}

// Status lists every known migration and whether it has been applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return nil, err
	}
	files, err := m.findMigrationFiles()
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, len(files))
	for i, f := range files {
		sum, ok := applied[f.Version]
		out[i] = MigrationStatus{Version: f.Version, Name: f.Name, Applied: ok, Checksum: sum}
	}
	return out, nil
}

func (m *Migrator) appliedChecksums(ctx context.Context) (map[string]string, error) {
	var rows []MigrationStatus
	if err := m.db.SelectContext(ctx, &rows, "SELECT version, checksum FROM schema_migrations"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Version] = r.Checksum
	}
	return out, nil
}

// checksum computes SHA256 checksum of migration content
func checksum(sql string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(sql)))
}

// findMigrationFiles reads files named like 001_create_runs.sql
func (m *Migrator) findMigrationFiles() ([]MigrationFile, error) {
	entries, err := fs.ReadDir(m.files, "migrations")
	if err != nil {
		return nil, err
	}
	var files []MigrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(strings.TrimSuffix(e.Name(), ".sql"), "_", 2)
		if len(parts) < 2 {
			continue
		}
		data, err := fs.ReadFile(m.files, path.Join("migrations", e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, MigrationFile{Version: parts[0], Name: parts[1], SQL: string(data)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func (m *Migrator) apply(ctx context.Context, file MigrationFile) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, file.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO schema_migrations (version, checksum) VALUES (?, ?)"),
		file.Version, checksum(file.SQL)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
