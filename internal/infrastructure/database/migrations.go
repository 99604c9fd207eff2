package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"
)

// MigrationsFS holds the journal schema. The top-level migrations package
// sets it from init, so importing that package for its side effect is
// enough to ship the schema in the binary.
var MigrationsFS embed.FS

// MigrationsDir is the directory within MigrationsFS holding the scripts.
var MigrationsDir = "migrations"

// upScript matches YYYYMMDD_HHMMSS_name.up.sql. Matching .down.sql files
// sit alongside for manual rollback and are never read here.
var upScript = regexp.MustCompile(`^(\d{8}_\d{6})_(\w+)\.up\.sql$`)

// Migration is one forward schema step.
type Migration struct {
	Version string // YYYYMMDD_HHMMSS
	Name    string
	SQL     string
}

// MigrationRecord is a row of schema_migrations.
type MigrationRecord struct {
	Version   string
	AppliedAt time.Time
}

// SchemaStatus describes how far the journal schema has been migrated.
type SchemaStatus struct {
	Applied []MigrationRecord
	Pending []Migration
}

// Version returns the newest applied version, or "" for an empty schema.
func (s SchemaStatus) Version() string {
	if len(s.Applied) == 0 {
		return ""
	}
	return s.Applied[len(s.Applied)-1].Version
}

// Migrate applies every pending migration, oldest first, each in its own
// transaction. A failure stops the sequence with earlier steps committed;
// calling Migrate again resumes at the failed step.
func (db *DB) Migrate(ctx context.Context) error {
	st, err := db.SchemaStatus(ctx)
	if err != nil {
		return err
	}
	for _, m := range st.Pending {
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// SchemaStatus compares the embedded scripts with schema_migrations.
func (db *DB) SchemaStatus(ctx context.Context) (SchemaStatus, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return SchemaStatus{}, fmt.Errorf("creating migrations table: %w", err)
	}

	scripts, err := loadMigrations(MigrationsFS, MigrationsDir)
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("loading migrations: %w", err)
	}
	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return SchemaStatus{}, err
	}

	st := SchemaStatus{Applied: applied}
	for _, m := range scripts {
		done := slices.ContainsFunc(applied, func(r MigrationRecord) bool { return r.Version == m.Version })
		if !done {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

func (db *DB) appliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		var at string
		if err := rows.Scan(&r.Version, &at); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		r.AppliedAt, _ = time.Parse(time.RFC3339, at) //nolint:errcheck // written by applyMigration
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}
	return out, nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}

// loadMigrations reads the up scripts in dir sorted by version. A missing
// directory means there is nothing to apply.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Migration
	for _, e := range entries {
		match := upScript.FindStringSubmatch(e.Name())
		if e.IsDir() || match == nil {
			continue
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: match[1], Name: match[2], SQL: string(body)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %s", out[i].Version)
		}
	}
	return out, nil
}
