package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyMigrationsRunsInOrder(t *testing.T) {
	migrationFS := fstest.MapFS{
		"views/0002_add_column.sql": &fstest.MapFile{Data: []byte("ALTER TABLE widgets ADD COLUMN label TEXT NOT NULL DEFAULT '';")},
		"views/0001_create.sql":     &fstest.MapFile{Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
	}
	sqlDB := openTestDB(t)

	if err := ApplyMigrations(sqlDB, migrationFS, "views"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := sqlDB.Exec("INSERT INTO widgets (id, label) VALUES ('w1', 'first')"); err != nil {
		t.Fatalf("expected both migrations applied: %v", err)
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	migrationFS := fstest.MapFS{
		"views/0001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
	}
	sqlDB := openTestDB(t)

	if err := ApplyMigrations(sqlDB, migrationFS, "views"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyMigrations(sqlDB, migrationFS, "views"); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(nil, fstest.MapFS{}, "views"); err == nil {
		t.Fatal("expected error for nil db")
	}
}
