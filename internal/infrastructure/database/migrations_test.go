package database

import (
	"context"
	"embed"
	"strings"
	"testing"
	"testing/fstest"
)

const testMigrationsDir = "testdata"

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

func useMigrations(t *testing.T, fsys embed.FS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	MigrationsFS = fsys
	MigrationsDir = dir
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrationsFS, testMigrationsDir)
	db := openTestDB(t)
	ctx := context.Background()

	st, err := db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if len(st.Applied) != 0 || len(st.Pending) != 1 || st.Version() != "" {
		t.Fatalf("before Migrate: applied=%d pending=%d version=%q", len(st.Applied), len(st.Pending), st.Version())
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var tableName string
	if err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_samples'",
	).Scan(&tableName); err != nil {
		t.Fatalf("table test_samples not created: %v", err)
	}

	st, err = db.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if len(st.Pending) != 0 {
		t.Errorf("after Migrate: %d pending", len(st.Pending))
	}
	if st.Version() != "20260101_000000" {
		t.Errorf("Version() = %q, want 20260101_000000", st.Version())
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	var emptyFS embed.FS
	useMigrations(t, emptyFS, "migrations")
	db := openTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		want     []string // version/name pairs in order
		wantErr  string
		wantBody string
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"m/20260302_080000_command_log_index.up.sql": {Data: []byte("CREATE INDEX x ON command_log(created_at);")},
				"m/20260301_090000_journal.up.sql":           {Data: []byte("CREATE TABLE runs (id TEXT);")},
				"m/20260301_090000_journal.down.sql":         {Data: []byte("DROP TABLE runs;")},
			},
			want:     []string{"20260301_090000/journal", "20260302_080000/command_log_index"},
			wantBody: "CREATE TABLE runs (id TEXT);",
		},
		{
			name: "foreign files ignored",
			files: fstest.MapFS{
				"m/readme.txt":                 {Data: []byte("notes")},
				"m/20260301_090000_journal.sql": {Data: []byte("no direction")},
				"m/invalid.up.sql":              {Data: []byte("no version")},
			},
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/20260301_090000_journal.up.sql": {Data: []byte("a")},
				"m/20260301_090000_runs.up.sql":    {Data: []byte("b")},
			},
			wantErr: "duplicate migration version",
		},
		{
			name:  "missing directory",
			files: fstest.MapFS{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadMigrations(tt.files, "m")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("loadMigrations() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadMigrations() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("loaded %d migrations, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if id := m.Version + "/" + m.Name; id != tt.want[i] {
					t.Errorf("migration %d = %s, want %s", i, id, tt.want[i])
				}
			}
			if tt.wantBody != "" && got[0].SQL != tt.wantBody {
				t.Errorf("SQL = %q, want %q", got[0].SQL, tt.wantBody)
			}
		})
	}
}
