package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/valuelens/valuelens-api/internal/database/migrations"
	"github.com/valuelens/valuelens-api/internal/extractor"
	"github.com/valuelens/valuelens-api/internal/repository"
)

// setupTestRepos creates repositories backed by an in-memory database.
func setupTestRepos(t *testing.T) *repository.Repositories {
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

	return repository.NewRepositories(db)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

// fakeFetcher returns canned HTML or an error.
type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

// fakeExtractor returns a canned extraction result or error.
type fakeExtractor struct {
	result *extractor.Result
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, html, url string) (*extractor.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// cokeData is the two-variant extraction used across pipeline tests.
func cokeData() *extractor.ExtractedProduct {
	q12 := 12.0
	q20 := 20.0
	return &extractor.ExtractedProduct{
		Name: "Coca-Cola Classic",
		Variants: []extractor.ExtractedVariant{
			{Name: "12 oz Can", QuantityNumeric: &q12, PriceCents: 129, Currency: "USD"},
			{Name: "20 oz Bottle", QuantityNumeric: &q20, PriceCents: 199, Currency: "USD"},
		},
	}
}
