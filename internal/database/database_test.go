package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a database in a fresh temporary directory.
func setupTestDB(t testing.TB) *Database {
	t.Helper()

	db, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}

	ok, err := db.NodeExists("")
	if err != nil || !ok {
		t.Errorf("Expected root node after initialization, got %v, %v", ok, err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "prefs")

	db, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("Expected database file in %s: %v", dir, err)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "x.db"))
	if err == nil {
		t.Error("Expected error for missing parent directory")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.Put("proj/favorites/a", "value", "3"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	db.Close()

	db, err = Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	v, ok, err := db.Get("proj/favorites/a", "value")
	if err != nil || !ok || v != "3" {
		t.Errorf("Get() = %q, %v, %v; want 3, true, nil", v, ok, err)
	}
}

func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "successful query", err: nil},
		{name: "failed query", err: errors.New("test error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			// Must not panic for either status.
			recordQuery("test_operation", time.Now(), tt.err)
		})
	}
}

func TestLikeEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := likeEscape(tt.in); got != tt.want {
			t.Errorf("likeEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
