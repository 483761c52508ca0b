package storage

import (
	"path/filepath"
	"testing"
)

// NewTestService creates a service on a migrated database in a temporary
// directory. It is exported for use in other package tests.
func NewTestService(t testing.TB) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	migrationMgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := migrationMgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	_ = migrationMgr.Close()

	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewService(db)
}
