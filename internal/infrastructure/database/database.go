package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
	openTimeout     = 5 * time.Second

	// defaultBusyTimeout covers the API reading while the telemetry worker
	// writes a journal row.
	defaultBusyTimeout = 5 * time.Second
)

// DB is the journal's SQLite handle.
type DB struct {
	*sql.DB
}

// Config is the database section of config.yaml.
type Config struct {
	// Path is the SQLite file. Its directory is created if missing.
	Path string

	// WALMode lets the diagnostics server read while the journal writes.
	WALMode bool

	// BusyTimeout is the maximum wait for a database lock, in seconds.
	BusyTimeout int
}

// Open creates the file and its directory if needed and checks the
// connection. The pool holds a single connection: SQLite has one writer
// and the journal writes from one goroutine.
func Open(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // best effort on exotic filesystems
	return &DB{DB: sqlDB}, nil
}

// dsn builds the go-sqlite3 connection string.
// See https://github.com/mattn/go-sqlite3#connection-string.
func dsn(cfg Config) string {
	busy := defaultBusyTimeout
	if cfg.BusyTimeout > 0 {
		busy = time.Duration(cfg.BusyTimeout) * time.Second
	}

	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	if cfg.WALMode {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Close closes the connection. It is safe on a nil or closed handle.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to prove the journal is reachable.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
