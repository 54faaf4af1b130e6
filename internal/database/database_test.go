package database

import (
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_database.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Dialect != DialectSQLite {
		t.Errorf("Expected sqlite dialect for file path, got %s", db.Dialect)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestInitialize(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_init.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Verify tables were created
	tables := []string{
		"fund_info",
		"debt_info",
		"property_info",
		"news",
		"price_points",
		"watermarks",
		"comic_chapters",
	}

	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		err := db.QueryRow(query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_idem.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	// Schema provisioning backs the /init endpoint and must be re-runnable
	for i := 0; i < 3; i++ {
		if err := db.Initialize(); err != nil {
			t.Fatalf("Initialize run %d failed: %v", i+1, err)
		}
	}
}

func TestInsertIgnore(t *testing.T) {
	db := &DB{Dialect: DialectSQLite}
	if got := db.InsertIgnore(); got != "INSERT OR IGNORE INTO" {
		t.Errorf("Unexpected sqlite verb: %q", got)
	}

	db = &DB{Dialect: DialectMySQL}
	if got := db.InsertIgnore(); got != "INSERT IGNORE INTO" {
		t.Errorf("Unexpected mysql verb: %q", got)
	}
}
