package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/visionaihq/visionai-api/internal/database/migrations"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// InsertTestUser is a helper to insert a test user directly.
func InsertTestUser(t *testing.T, db *sql.DB, id, email string, credits int64) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO users (id, email, name, password_hash, credits, created_at, updated_at)
		VALUES (?, ?, 'Test User', 'x', ?, ?, ?)
	`
	if _, err := db.Exec(query, id, email, credits, now, now); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

// InsertTestPayment is a helper to insert a test payment record directly.
func InsertTestPayment(t *testing.T, db *sql.DB, id, userID, intentID, status string, creditsToGrant int64, createdAt time.Time) {
	t.Helper()
	ts := createdAt.UTC().Format(time.RFC3339)
	query := `
		INSERT INTO payments (id, user_id, gateway_intent_id, amount_minor, status, credits_to_grant, plan_id, plan_name, created_at, updated_at)
		VALUES (?, ?, ?, 2999, ?, ?, 'pro', 'Professional', ?, ?)
	`
	if _, err := db.Exec(query, id, userID, intentID, status, creditsToGrant, ts, ts); err != nil {
		t.Fatalf("failed to insert test payment: %v", err)
	}
}

// InsertTestImage is a helper to insert a test image directly.
func InsertTestImage(t *testing.T, db *sql.DB, id, userID string, shared bool) {
	t.Helper()
	query := `
		INSERT INTO images (id, user_id, url, prompt, width, height, shared, created_at)
		VALUES (?, ?, 'https://cdn.example.com/img.png', 'a lighthouse at dusk', 1024, 1024, ?, ?)
	`
	if _, err := db.Exec(query, id, userID, shared, time.Now().UTC().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to insert test image: %v", err)
	}
}
