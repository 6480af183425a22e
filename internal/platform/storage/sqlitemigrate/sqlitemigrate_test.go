package sqlitemigrate

import (
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyMigrationsRunsOnce(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"001_init.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE widgets (id TEXT PRIMARY KEY);
-- +migrate Down
DROP TABLE widgets;
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	// Second run must be a no-op rather than a duplicate-table failure.
	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("reapply migrations: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}

func TestApplyMigrationsOrders(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"002_add_column.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
ALTER TABLE widgets ADD COLUMN name TEXT;
`)},
		"001_init.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE widgets (id TEXT PRIMARY KEY);
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := sqlDB.Exec("INSERT INTO widgets (id, name) VALUES ('w1', 'anvil')"); err != nil {
		t.Fatalf("expected both migrations applied in order: %v", err)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	err := ApplyMigrations(nil, fstest.MapFS{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;"
	up := ExtractUpMigration(content)
	if up != "\nCREATE TABLE a (id TEXT);\n" {
		t.Fatalf("unexpected up section: %q", up)
	}

	plain := "CREATE TABLE b (id TEXT);"
	if ExtractUpMigration(plain) != plain {
		t.Fatal("expected content without markers returned unchanged")
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if !IsAlreadyExistsError(errors.New("table widgets already exists")) {
		t.Fatal("expected already-exists detection")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("did not expect detection for unrelated error")
	}
}
