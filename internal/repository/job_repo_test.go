package repository

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/valuelens/valuelens-api/internal/models"
)

func TestJobRepository_Create(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	job := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/product",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := repos.Job.Create(ctx, job)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify it was created
	got, err := repos.Job.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() returned nil")
	}
	if got.ID != job.ID {
		t.Errorf("ID = %s, want %s", got.ID, job.ID)
	}
	if got.URL != job.URL {
		t.Errorf("URL = %s, want %s", got.URL, job.URL)
	}
	if got.Status != models.JobStatusQueued {
		t.Errorf("Status = %s, want %s", got.Status, models.JobStatusQueued)
	}
	if got.Progress != 0 {
		t.Errorf("Progress = %d, want 0", got.Progress)
	}
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	got, err := repos.Job.GetByID(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent job")
	}
}

func TestJobRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	job := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/product",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repos.Job.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	productID := ulid.Make().String()
	InsertTestProduct(t, db, productID, "Test", "https://example.com/p2", "completed")

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.ProductID = &productID
	job.MetadataJSON = `{"variant_count":2}`
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err := repos.Job.Update(ctx, job); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repos.Job.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.JobStatusCompleted {
		t.Errorf("Status = %s, want %s", got.Status, models.JobStatusCompleted)
	}
	if got.Progress != 100 {
		t.Errorf("Progress = %d, want 100", got.Progress)
	}
	if got.ProductID == nil || *got.ProductID != productID {
		t.Errorf("ProductID = %v, want %s", got.ProductID, productID)
	}
	if got.MetadataJSON != job.MetadataJSON {
		t.Errorf("MetadataJSON = %s, want %s", got.MetadataJSON, job.MetadataJSON)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set")
	}
}

func TestJobRepository_Update_ClampsProgress(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	job := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/product",
		Status:    models.JobStatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repos.Job.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	job.Progress = 150
	if err := repos.Job.Update(ctx, job); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repos.Job.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Progress != 100 {
		t.Errorf("Progress = %d, want 100", got.Progress)
	}
}

func TestJobRepository_List(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		job := &models.Job{
			ID:        ulid.Make().String(),
			URL:       "https://example.com/product",
			Status:    models.JobStatusQueued,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := repos.Job.Create(ctx, job); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		// Small delay to ensure different creation times
		time.Sleep(time.Millisecond)
	}

	jobs, err := repos.Job.List(ctx, 3, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("len(jobs) = %d, want 3", len(jobs))
	}

	jobs, err = repos.Job.List(ctx, 10, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("len(jobs) = %d, want 2", len(jobs))
	}
}

func TestJobRepository_ClaimQueued(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	first := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/first",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repos.Job.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	second := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/second",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repos.Job.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Oldest queued job is claimed first
	claimed, err := repos.Job.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimQueued() error = %v", err)
	}
	if claimed == nil {
		t.Fatal("ClaimQueued() returned nil, want job")
	}
	if claimed.ID != first.ID {
		t.Errorf("claimed ID = %s, want %s", claimed.ID, first.ID)
	}
	if claimed.Status != models.JobStatusProcessing {
		t.Errorf("claimed Status = %s, want %s", claimed.Status, models.JobStatusProcessing)
	}
	if claimed.StartedAt == nil {
		t.Error("claimed StartedAt = nil, want set")
	}

	// The claimed job is no longer queued
	claimed2, err := repos.Job.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimQueued() error = %v", err)
	}
	if claimed2 == nil {
		t.Fatal("ClaimQueued() returned nil, want second job")
	}
	if claimed2.ID != second.ID {
		t.Errorf("claimed ID = %s, want %s", claimed2.ID, second.ID)
	}
}

func TestJobRepository_ClaimQueued_Empty(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	claimed, err := repos.Job.ClaimQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimQueued() error = %v", err)
	}
	if claimed != nil {
		t.Errorf("ClaimQueued() = %v, want nil when queue is empty", claimed)
	}
}

func TestJobRepository_MarkStaleProcessingFailed(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	staleID := ulid.Make().String()
	stale := &models.Job{
		ID:        staleID,
		URL:       "https://example.com/stale",
		Status:    models.JobStatusProcessing,
		Progress:  50,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	startedAt := time.Now().Add(-2 * time.Hour)
	stale.StartedAt = &startedAt
	if err := repos.Job.Create(ctx, stale); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fresh := &models.Job{
		ID:        ulid.Make().String(),
		URL:       "https://example.com/fresh",
		Status:    models.JobStatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	freshStarted := time.Now()
	fresh.StartedAt = &freshStarted
	if err := repos.Job.Create(ctx, fresh); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	count, err := repos.Job.MarkStaleProcessingFailed(ctx, time.Hour)
	if err != nil {
		t.Fatalf("MarkStaleProcessingFailed() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	got, err := repos.Job.GetByID(ctx, staleID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.JobStatusFailed {
		t.Errorf("Status = %s, want %s", got.Status, models.JobStatusFailed)
	}
	if got.Progress != 0 {
		t.Errorf("Progress = %d, want 0", got.Progress)
	}
	if got.ErrorMessage == "" {
		t.Error("ErrorMessage is empty, want failure reason")
	}

	gotFresh, err := repos.Job.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if gotFresh.Status != models.JobStatusProcessing {
		t.Errorf("fresh Status = %s, want %s", gotFresh.Status, models.JobStatusProcessing)
	}
}
