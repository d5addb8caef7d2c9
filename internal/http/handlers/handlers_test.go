package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/valuelens/valuelens-api/internal/database/migrations"
	"github.com/valuelens/valuelens-api/internal/extractor"
	"github.com/valuelens/valuelens-api/internal/models"
	"github.com/valuelens/valuelens-api/internal/repository"
	"github.com/valuelens/valuelens-api/internal/service"
)

func setupHandlers(t *testing.T) (*Handlers, *repository.Repositories, *sql.DB) {
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

	repos := repository.NewRepositories(db)
	logger := slog.Default()
	catalog := service.NewCatalogService(repos, logger)
	jobSvc := service.NewJobService(repos, catalog, logger)

	h := &Handlers{
		Job:     NewJobHandler(jobSvc),
		Product: NewProductHandler(catalog),
	}
	return h, repos, db
}

func fptr(f float64) *float64 { return &f }

// seedCompletedProduct persists a two-variant product and returns its ID.
func seedCompletedProduct(t *testing.T, repos *repository.Repositories, url string) string {
	t.Helper()

	catalog := service.NewCatalogService(repos, slog.Default())
	data := &extractor.ExtractedProduct{
		Name:        "Coca-Cola",
		Description: "Classic soda",
		Variants: []extractor.ExtractedVariant{
			{Name: "12 oz Can", QuantityNumeric: fptr(12), PriceCents: 129, Currency: "USD"},
			{Name: "20 oz Bottle", QuantityNumeric: fptr(20), PriceCents: 199, Currency: "USD"},
		},
	}
	saved, err := catalog.Save(context.Background(), data, url)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	if len(saved.Errors) > 0 {
		t.Fatalf("unexpected validation errors: %v", saved.Errors)
	}
	return saved.Product.ID
}

// ========================================
// HealthCheck Tests
// ========================================

func TestHealthCheck(t *testing.T) {
	output, err := HealthCheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output == nil {
		t.Fatal("expected output, got nil")
	}
	if output.Body.Status != "healthy" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "healthy")
	}
	if output.Body.Version == "" {
		t.Error("expected version to be set")
	}
}

// ========================================
// Probe Tests
// ========================================

func TestLivez(t *testing.T) {
	output, err := Livez(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
}

func TestReadyz_Success(t *testing.T) {
	_, _, db := setupHandlers(t)

	output, err := Readyz(db)(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
}

func TestReadyz_ClosedDB(t *testing.T) {
	_, _, db := setupHandlers(t)
	_ = db.Close()

	_, err := Readyz(db)(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// ========================================
// CreateExtraction Tests
// ========================================

func TestCreateExtraction(t *testing.T) {
	h, _, _ := setupHandlers(t)

	input := &CreateExtractionInput{}
	input.Body.URL = "https://example.com/products/coke"

	output, err := h.Job.CreateExtraction(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Status != 201 {
		t.Errorf("Status = %d, want 201", output.Status)
	}
	if output.Body.JobID == "" {
		t.Error("expected job ID to be set")
	}
	if output.Body.Status != "queued" {
		t.Errorf("job status = %q, want %q", output.Body.Status, "queued")
	}
	if !strings.HasPrefix(output.Body.StatusURL, "/api/v1/jobs/") {
		t.Errorf("StatusURL = %q, want /api/v1/jobs/ prefix", output.Body.StatusURL)
	}
}

func TestCreateExtraction_InvalidURL(t *testing.T) {
	h, _, _ := setupHandlers(t)

	tests := []struct {
		name string
		url  string
	}{
		{"blank", "   "},
		{"no scheme", "example.com/products"},
		{"ftp scheme", "ftp://example.com/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &CreateExtractionInput{}
			input.Body.URL = tt.url

			_, err := h.Job.CreateExtraction(context.Background(), input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// ========================================
// GetJob Tests
// ========================================

func TestGetJob_NotFound(t *testing.T) {
	h, _, _ := setupHandlers(t)

	_, err := h.Job.GetJob(context.Background(), &GetJobInput{ID: "missing"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetJob_Queued(t *testing.T) {
	h, _, _ := setupHandlers(t)

	input := &CreateExtractionInput{}
	input.Body.URL = "https://example.com/products/coke"
	created, err := h.Job.CreateExtraction(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	output, err := h.Job.GetJob(context.Background(), &GetJobInput{ID: created.Body.JobID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "queued" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "queued")
	}
	if output.Body.StatusText != "Waiting in queue" {
		t.Errorf("StatusText = %q, want %q", output.Body.StatusText, "Waiting in queue")
	}
	if output.Body.Finished {
		t.Error("expected Finished = false")
	}
	if output.Body.Result != nil {
		t.Error("expected no result for a queued job")
	}
	if output.Body.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", output.Body.ErrorMessage)
	}
}

func TestGetJob_Completed(t *testing.T) {
	h, repos, _ := setupHandlers(t)

	url := "https://example.com/products/coke"
	productID := seedCompletedProduct(t, repos, url)

	now := time.Now()
	job := &models.Job{
		ID:          "job-done",
		URL:         url,
		Status:      models.JobStatusCompleted,
		Progress:    100,
		ProductID:   &productID,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repos.Job.Create(context.Background(), job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	output, err := h.Job.GetJob(context.Background(), &GetJobInput{ID: "job-done"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "completed" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "completed")
	}
	if !output.Body.Finished {
		t.Error("expected Finished = true")
	}
	if output.Body.Result == nil {
		t.Fatal("expected result payload for a completed job")
	}
	if len(output.Body.Result.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(output.Body.Result.Variants))
	}
	if output.Body.Result.BestValueVariantID == "" {
		t.Error("expected best value variant to be set")
	}

	var best *VariantPayload
	for i := range output.Body.Result.Variants {
		if output.Body.Result.Variants[i].BestValue {
			best = &output.Body.Result.Variants[i]
		}
	}
	if best == nil {
		t.Fatal("expected one variant flagged best value")
	}
	if best.Name != "20 oz Bottle" {
		t.Errorf("best value = %q, want %q", best.Name, "20 oz Bottle")
	}
}

func TestGetJob_Failed(t *testing.T) {
	h, repos, _ := setupHandlers(t)

	now := time.Now()
	job := &models.Job{
		ID:           "job-failed",
		URL:          "https://example.com/products/gone",
		Status:       models.JobStatusFailed,
		Progress:     0,
		ErrorMessage: "HTTP 404: Not Found",
		CompletedAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Job.Create(context.Background(), job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	output, err := h.Job.GetJob(context.Background(), &GetJobInput{ID: "job-failed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.ErrorMessage != "HTTP 404: Not Found" {
		t.Errorf("ErrorMessage = %q, want %q", output.Body.ErrorMessage, "HTTP 404: Not Found")
	}
	if output.Body.Result != nil {
		t.Error("expected no result for a failed job")
	}
}

// ========================================
// ListJobs Tests
// ========================================

func TestListJobs(t *testing.T) {
	h, _, _ := setupHandlers(t)

	for i := 0; i < 3; i++ {
		input := &CreateExtractionInput{}
		input.Body.URL = "https://example.com/products/item"
		if _, err := h.Job.CreateExtraction(context.Background(), input); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
	}

	output, err := h.Job.ListJobs(context.Background(), &ListJobsInput{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Body.Jobs) != 2 {
		t.Errorf("jobs = %d, want 2", len(output.Body.Jobs))
	}
	for _, job := range output.Body.Jobs {
		if job.Status != "queued" {
			t.Errorf("Status = %q, want %q", job.Status, "queued")
		}
	}
}

// ========================================
// GetProduct Tests
// ========================================

func TestGetProduct_NotFound(t *testing.T) {
	h, _, _ := setupHandlers(t)

	_, err := h.Product.GetProduct(context.Background(), &GetProductInput{ID: "missing"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetProduct(t *testing.T) {
	h, repos, _ := setupHandlers(t)

	productID := seedCompletedProduct(t, repos, "https://example.com/products/coke")

	output, err := h.Product.GetProduct(context.Background(), &GetProductInput{ID: productID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Name != "Coca-Cola" {
		t.Errorf("Name = %q, want %q", output.Body.Name, "Coca-Cola")
	}
	if output.Body.Status != "completed" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "completed")
	}
	if len(output.Body.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(output.Body.Variants))
	}

	can := output.Body.Variants[0]
	if can.PricePerUnit == nil || *can.PricePerUnit != 11 {
		t.Errorf("can price per unit = %v, want 11", can.PricePerUnit)
	}
	if can.ValueRank != 2 {
		t.Errorf("can rank = %d, want 2", can.ValueRank)
	}

	bottle := output.Body.Variants[1]
	if bottle.PricePerUnit == nil || *bottle.PricePerUnit != 10 {
		t.Errorf("bottle price per unit = %v, want 10", bottle.PricePerUnit)
	}
	if !bottle.BestValue {
		t.Error("expected bottle to be best value")
	}
	if bottle.SavingsPercent == 0 {
		t.Error("expected best value variant to show savings")
	}
}
