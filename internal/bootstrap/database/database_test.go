package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cardtrack/internal/bootstrap/config"
)

func TestWithPragmas(t *testing.T) {
	got := WithPragmas("cards.sqlite")
	want := "cards.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Fatalf("WithPragmas() = %q, want %q", got, want)
	}

	got = WithPragmas("file::memory:?cache=shared")
	want = "file::memory:?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Fatalf("WithPragmas() = %q, want %q", got, want)
	}

	custom := "x.sqlite?_pragma=journal_mode(WAL)"
	if WithPragmas(custom) != custom {
		t.Fatalf("WithPragmas() should keep explicit pragmas")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "cards.sqlite")
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Exec("CREATE TABLE probe (id INTEGER)").Error; err != nil {
		t.Fatalf("create probe table: %v", err)
	}
	if _, err := os.Stat(dsn); err != nil {
		t.Fatalf("stat sqlite file: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("Open() expected error for unknown driver")
	}
}
