// Package journal records timeline runs and operator commands in SQLite
// for the diagnostics API.
//
// The journal is a log, not state: nothing is replayed from it on restart.
// Runs still marked running from a previous process are closed as abandoned.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
	StatusAbandoned = "abandoned"
)

// Page size limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// RunEntry is one journalled timeline run.
type RunEntry struct {
	ID        string     `json:"id"`
	Timeline  string     `json:"timeline"`
	Mode      string     `json:"mode"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
	Fired     int        `json:"fired"`
	MaxLateMS float64    `json:"max_late_ms"`
}

// CommandEntry is one journalled operator code.
type CommandEntry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	RawCode   string    `json:"raw_code"`
	Symbol    string    `json:"symbol,omitempty"`
	Handled   bool      `json:"handled"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which rows List returns.
type Filter struct {
	Timeline string // runs only
	Status   string // runs only
	Source   string // commands only
	Limit    int
	Offset   int
}

// RunList is a page of runs.
type RunList struct {
	Runs   []RunEntry `json:"runs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// CommandList is a page of commands.
type CommandList struct {
	Commands []CommandEntry `json:"commands"`
	Total    int            `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

// Repository defines the journal operations.
type Repository interface {
	StartRun(ctx context.Context, run *RunEntry) error
	EndRun(ctx context.Context, id, status string, fired int, maxLateMS float64, at time.Time) error
	AbandonRunning(ctx context.Context, at time.Time) (int64, error)
	LogCommand(ctx context.Context, cmd *CommandEntry) error
	ListRuns(ctx context.Context, filter Filter) (*RunList, error)
	ListCommands(ctx context.Context, filter Filter) (*CommandList, error)
}

// SQLiteRepository stores the journal in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a journal repository over db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// StartRun inserts a running row. StartedAt is set if zero.
func (r *SQLiteRepository) StartRun(ctx context.Context, run *RunEntry) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO timeline_runs (id, timeline, mode, started_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Timeline, run.Mode, formatTime(run.StartedAt), run.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// EndRun closes a run. Closing an unknown or already closed run is a no-op.
func (r *SQLiteRepository) EndRun(ctx context.Context, id, status string, fired int, maxLateMS float64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE timeline_runs SET status = ?, ended_at = ?, fired = ?, max_late_ms = ?
		 WHERE id = ? AND status = 'running'`,
		status, formatTime(at), fired, maxLateMS, id,
	)
	if err != nil {
		return fmt.Errorf("closing run: %w", err)
	}
	return nil
}

// AbandonRunning closes every run left running by a previous process.
func (r *SQLiteRepository) AbandonRunning(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE timeline_runs SET status = ?, ended_at = ? WHERE status = 'running'`,
		StatusAbandoned, formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("abandoning runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("abandoning runs: %w", err)
	}
	return n, nil
}

// LogCommand inserts an operator code. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) LogCommand(ctx context.Context, cmd *CommandEntry) error {
	if cmd.ID == "" {
		cmd.ID = "cmd-" + uuid.NewString()[:8]
	}
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_log (id, source, raw_code, symbol, handled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cmd.ID, cmd.Source, cmd.RawCode, nullableString(cmd.Symbol), cmd.Handled,
		formatTime(cmd.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting command: %w", err)
	}
	return nil
}

// ListRuns returns runs matching the filter, most recent first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, filter Filter) (*RunList, error) {
	filter = clampPage(filter)

	var conditions []string
	var args []any
	if filter.Timeline != "" {
		conditions = append(conditions, "timeline = ?")
		args = append(args, filter.Timeline)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	where := whereClause(conditions)

	var total int
	countQuery := "SELECT COUNT(*) FROM timeline_runs " + where //nolint:gosec // parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}

	query := "SELECT id, timeline, mode, started_at, ended_at, status, fired, max_late_ms FROM timeline_runs " + //nolint:gosec // parameterised conditions
		where + " ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []RunEntry{}
	for rows.Next() {
		var run RunEntry
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&run.ID, &run.Timeline, &run.Mode, &startedAt, &endedAt,
			&run.Status, &run.Fired, &run.MaxLateMS); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t, err := parseTime(endedAt.String)
			if err != nil {
				return nil, err
			}
			run.EndedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return &RunList{Runs: runs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListCommands returns commands matching the filter, most recent first.
func (r *SQLiteRepository) ListCommands(ctx context.Context, filter Filter) (*CommandList, error) {
	filter = clampPage(filter)

	var conditions []string
	var args []any
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	where := whereClause(conditions)

	var total int
	countQuery := "SELECT COUNT(*) FROM command_log " + where //nolint:gosec // parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting commands: %w", err)
	}

	query := "SELECT id, source, raw_code, symbol, handled, created_at FROM command_log " + //nolint:gosec // parameterised conditions
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying commands: %w", err)
	}
	defer rows.Close()

	cmds := []CommandEntry{}
	for rows.Next() {
		var cmd CommandEntry
		var symbol sql.NullString
		var createdAt string
		if err := rows.Scan(&cmd.ID, &cmd.Source, &cmd.RawCode, &symbol, &cmd.Handled, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		cmd.Symbol = symbol.String
		if cmd.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commands: %w", err)
	}

	return &CommandList{Commands: cmds, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func clampPage(f Filter) Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing journal timestamp %q: %w", s, err)
	}
	return t, nil
}
