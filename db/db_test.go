package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/touchbase/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func createTestUser(t *testing.T, database *sql.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test User"}
	if err := CreateUser(context.Background(), database, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func createTestContact(t *testing.T, database *sql.DB, user *models.User, name string, freq *int) *models.Contact {
	t.Helper()
	c := &models.Contact{UserID: user.ID, Name: name, FrequencyInDays: freq}
	if err := CreateContact(context.Background(), database, c); err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}
	return c
}

func createTestInteraction(t *testing.T, database *sql.DB, user *models.User, title string, at time.Time, contacts ...*models.Contact) *models.Interaction {
	t.Helper()
	ctx := context.Background()
	it := &models.Interaction{UserID: user.ID, Title: title, WasAt: at}
	if err := CreateInteraction(ctx, database, it); err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}
	for _, c := range contacts {
		it.ContactIDs = append(it.ContactIDs, c.ID)
	}
	if _, err := SetInteractionContacts(ctx, database, it.ID, it.ContactIDs); err != nil {
		t.Fatalf("SetInteractionContacts failed: %v", err)
	}
	return it
}

func intPtr(i int) *int { return &i }

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count < 12 {
		t.Errorf("Expected at least 12 tables, got %d", count)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}
	if fk != 1 {
		t.Error("Expected foreign keys to be enabled")
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	// A regular file cannot be used as a parent directory, even by root.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}
	dbPath := filepath.Join(blocker, "nested", "test.db")

	_, err := OpenDatabase(dbPath)
	if err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestOpenDatabaseReinitialization(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Initial OpenDatabase failed: %v", err)
	}
	db.Close()

	db, err = OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase should handle re-initialization gracefully, but got error: %v", err)
	}
	defer db.Close()

	var types int
	if err := db.QueryRow("SELECT COUNT(*) FROM interaction_types").Scan(&types); err != nil {
		t.Fatalf("Failed to count interaction types: %v", err)
	}
	if types != 4 {
		t.Errorf("Expected 4 seeded interaction types, got %d", types)
	}
}
