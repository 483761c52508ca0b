package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("optcg.db")

	if config.Path != "optcg.db" {
		t.Errorf("expected path 'optcg.db', got '%s'", config.Path)
	}
	if config.MaxOpenConns != 25 || config.MaxIdleConns != 5 {
		t.Errorf("unexpected pool size %d/%d", config.MaxOpenConns, config.MaxIdleConns)
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}
	if config.AutoMigrate {
		t.Error("expected AutoMigrate to be off by default")
	}
}

func TestConfigDSN(t *testing.T) {
	config := DefaultConfig("/data/optcg.db")
	config.BusyTimeout = 2 * time.Second

	dsn := config.dsn()
	for _, want := range []string{
		"file:/data/optcg.db?",
		"busy_timeout%282000%29",
		"journal_mode%28WAL%29",
		"foreign_keys%281%29",
		"_time_format=sqlite",
	} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q does not contain %q", dsn, want)
		}
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}
	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}
}

func TestOpenWithNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error when opening with nil config")
	}
}

func TestOpenAutoMigrate(t *testing.T) {
	config := DefaultConfig(filepath.Join(t.TempDir(), "nested", "auto.db"))
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"leaders", "decks", "matchups", "cards", "card_prices"} {
		var name string
		err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestClose(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("failed to close database: %v", err)
	}
	if err := db.Ping(); err == nil {
		t.Error("expected error when pinging closed database")
	}
}

func TestWithTransaction(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO leaders (id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, "Leader "+id, "Red", now, now)
		return err
	}

	err := svc.DB().WithTransaction(ctx, func(tx *sql.Tx) error {
		return insert(tx, "OP01-001")
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	boom := errors.New("boom")
	err = svc.DB().WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := insert(tx, "OP01-060"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	leaders, err := svc.ListLeaders(ctx)
	if err != nil {
		t.Fatalf("failed to list leaders: %v", err)
	}
	if len(leaders) != 1 || leaders[0].ID != "OP01-001" {
		t.Errorf("expected only the committed leader, got %+v", leaders)
	}
}

func TestWithTransactionPanic(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to be re-raised")
		}
		leaders, err := svc.ListLeaders(ctx)
		if err != nil {
			t.Fatalf("failed to list leaders: %v", err)
		}
		if len(leaders) != 0 {
			t.Errorf("expected rollback, got %d leaders", len(leaders))
		}
	}()

	_ = svc.Update(ctx, func(repos *Repositories) error {
		if _, err := repos.Leaders.Upsert(ctx, leaderFixture("OP01-001")); err != nil {
			return err
		}
		panic("import aborted")
	})
}
