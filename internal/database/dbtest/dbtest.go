// Package dbtest provides migrated databases for tests in other packages.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/kdimtricp/deepcheck/internal/database"
)

// NewSQLite opens a migrated SQLite database in a per-test temp directory.
func NewSQLite(tb testing.TB) *database.DB {
	tb.Helper()

	db, err := database.NewDB(database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(tb.TempDir(), "test.db"),
	}, nil)
	if err != nil {
		tb.Fatalf("Failed to open sqlite database: %v", err)
	}
	if err := db.RunMigrations(""); err != nil {
		tb.Fatalf("Failed to migrate sqlite database: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}
