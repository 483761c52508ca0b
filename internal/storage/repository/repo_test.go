package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// setupTestDB creates an in-memory database with the real schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	files, err := filepath.Glob(filepath.Join("..", "migrations", "*.up.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("failed to find migrations: %v", err)
	}
	sort.Strings(files)
	for _, f := range files {
		schema, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("failed to read %s: %v", f, err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			t.Fatalf("failed to apply %s: %v", f, err)
		}
	}
	return db
}

// seedLeaders inserts leaders so decks and matchups satisfy their foreign keys.
func seedLeaders(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	repo := NewLeaderRepository(db)
	for _, id := range ids {
		if _, err := repo.Upsert(context.Background(), &models.Leader{ID: id, Name: "Leader " + id, Color: "Red"}); err != nil {
			t.Fatalf("failed to seed leader %s: %v", id, err)
		}
	}
}

// seedCards inserts bare catalog cards so prices satisfy their foreign keys.
func seedCards(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	repo := NewCardRepository(db)
	for _, id := range ids {
		if _, err := repo.Upsert(context.Background(), &models.Card{ID: id, Name: "Card " + id}); err != nil {
			t.Fatalf("failed to seed card %s: %v", id, err)
		}
	}
}
