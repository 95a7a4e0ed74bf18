// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	tables := []string{
		"users",
		"social_accounts",
		"contacts",
		"email_addresses",
		"phone_numbers",
		"interaction_types",
		"interactions",
		"interaction_contacts",
		"interaction_analyses",
		"google_emails",
		"google_calendar_events",
		"sync_state",
		"sync_runs",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Verify indexes exist
	indexes := []string{
		"idx_contacts_user_id",
		"idx_interactions_user_was_at",
		"idx_interaction_contacts_contact_id",
		"idx_analyses_follow_up_date",
		"idx_sync_runs_account",
	}
	for _, idx := range indexes {
		var indexName string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&indexName)
		if err != nil {
			t.Errorf("Index %s not found: %v", idx, err)
		}
	}
}

func TestInitSchemaSeedsInteractionTypes(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Running twice must not duplicate the seed rows
	for i := 0; i < 2; i++ {
		if err := InitSchema(db); err != nil {
			t.Fatalf("InitSchema failed: %v", err)
		}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM interaction_types").Scan(&count); err != nil {
		t.Fatalf("Failed to count interaction types: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 interaction types, got %d", count)
	}
}
