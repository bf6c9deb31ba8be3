package migrations

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/tursodatabase/go-libsql"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunAppliesRegisteredMigrations(t *testing.T) {
	db := setupTestDB(t)

	if err := Run(db, testLogger()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	count, err := GetMigrationCount(db)
	if err != nil {
		t.Fatalf("GetMigrationCount() error = %v", err)
	}
	if count != len(registry) {
		t.Errorf("applied count = %d, want %d", count, len(registry))
	}

	version, err := GetLatestVersion(db)
	if err != nil {
		t.Fatalf("GetLatestVersion() error = %v", err)
	}
	if version != "20250722-181420" {
		t.Errorf("latest version = %q, want %q", version, "20250722-181420")
	}

	// The schema the registry builds must include the payment tables.
	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'payments'").Scan(&name)
	if err != nil {
		t.Errorf("payments table missing after migrations: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := Run(db, testLogger()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first, _ := GetMigrationCount(db)

	if err := Run(db, testLogger()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second, _ := GetMigrationCount(db)

	if first != second {
		t.Errorf("migration count changed on re-run: %d -> %d", first, second)
	}
}

func TestLatestVersionEmptyBeforeMigrations(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		t.Fatalf("failed to create tracking table: %v", err)
	}

	version, err := GetLatestVersion(db)
	if err != nil {
		t.Fatalf("GetLatestVersion() error = %v", err)
	}
	if version != "" {
		t.Errorf("version = %q, want empty before any migration", version)
	}
}
