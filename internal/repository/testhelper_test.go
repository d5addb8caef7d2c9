package repository

import (
	"database/sql"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/valuelens/valuelens-api/internal/database/migrations"
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

// InsertTestJob is a helper to insert a test job directly.
func InsertTestJob(t *testing.T, db *sql.DB, id, url, status string) {
	t.Helper()
	query := `
		INSERT INTO jobs (id, url, status, progress, created_at, updated_at)
		VALUES (?, ?, ?, 0, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, url, status); err != nil {
		t.Fatalf("failed to insert test job: %v", err)
	}
}

// InsertTestProduct is a helper to insert a test product directly.
func InsertTestProduct(t *testing.T, db *sql.DB, id, name, url, status string) {
	t.Helper()
	query := `
		INSERT INTO products (id, name, url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, name, url, status); err != nil {
		t.Fatalf("failed to insert test product: %v", err)
	}
}

// InsertTestVariant is a helper to insert a test variant directly.
func InsertTestVariant(t *testing.T, db *sql.DB, id, productID, name string, priceCents int64, position int) {
	t.Helper()
	query := `
		INSERT INTO variants (id, product_id, name, price_cents, currency, position, created_at)
		VALUES (?, ?, ?, ?, 'USD', ?, datetime('now'))
	`
	if _, err := db.Exec(query, id, productID, name, priceCents, position); err != nil {
		t.Fatalf("failed to insert test variant: %v", err)
	}
}
