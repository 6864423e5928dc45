package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// Test that tables were created by migrations
	tables := []string{"clans", "clan_locations", "clan_surnames", "members", "marriages", "migrations"}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations again must be a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestWithTx tests commit and rollback through the transaction helper
func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	now := time.Now().UTC()

	err := db.WithTx(func(tx *Tx) error {
		_, err := tx.ExecReturningID(
			"INSERT INTO clans (clan_name, created_at, updated_at) VALUES (?, ?, ?)", "Committed", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	sentinel := errors.New("abort")
	err = db.WithTx(func(tx *Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO clans (clan_name, created_at, updated_at) VALUES (?, ?, ?)", "Rolled back", now, now,
		); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx() error = %v, want %v", err, sentinel)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM clans").Scan(&count); err != nil {
		t.Fatalf("Failed to count clans: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 clan after rollback, got %d", count)
	}
}

// TestForeignKeysEnforced checks the DSN pragmas reach every pooled connection
func TestForeignKeysEnforced(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	now := time.Now().UTC()

	_, err := db.Exec(
		"INSERT INTO members (first_name, last_name, parent1_id, is_deleted, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"Orphan", "Child", 999, false, now, now,
	)
	if err == nil {
		t.Fatal("Expected a foreign key violation for a missing parent")
	}
	if !IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = false, want true", err)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	now := time.Now().UTC()

	_, err := db.Exec("INSERT INTO clans (clan_name, created_at, updated_at) VALUES (?, ?, ?)", "Concurrent", now, now)
	if err != nil {
		t.Fatalf("Failed to create test clan: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var name string
			err := db.QueryRow("SELECT clan_name FROM clans WHERE clan_name = ?", "Concurrent").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent" {
				t.Errorf("Expected clan 'Concurrent', got '%s'", name)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
