package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/valuelens/valuelens-api/internal/fetcher"
	"github.com/valuelens/valuelens-api/internal/models"
	"github.com/valuelens/valuelens-api/internal/repository"
)

// JobService handles extraction job submission and polling reads.
type JobService struct {
	repos   *repository.Repositories
	catalog *CatalogService
	logger  *slog.Logger
}

// NewJobService creates a new job service.
func NewJobService(repos *repository.Repositories, catalog *CatalogService, logger *slog.Logger) *JobService {
	return &JobService{repos: repos, catalog: catalog, logger: logger}
}

// CreateExtractionJob validates url and enqueues a new job for it.
func (s *JobService) CreateExtractionJob(ctx context.Context, url string) (*models.Job, error) {
	if err := fetcher.ValidateURL(url); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &models.Job{
		ID:        ulid.Make().String(),
		URL:       url,
		Status:    models.JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repos.Job.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("extraction job queued", "job_id", job.ID, "url", url)
	return job, nil
}

// GetJob returns the job by ID, or nil when it does not exist.
func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.repos.Job.GetByID(ctx, id)
}

// ListJobs returns jobs newest-first.
func (s *JobService) ListJobs(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Job.List(ctx, limit, offset)
}

// JobSnapshot is the read-only view pollers consume. Result is populated
// only when the job completed; ErrorMessage only when it failed.
type JobSnapshot struct {
	ID         string
	URL        string
	Status     models.JobStatus
	StatusText string
	Progress   int
	Finished   bool

	ErrorMessage string
	Result       *ProductView
	Metadata     string
}

// Snapshot builds the polling view of a job, loading the product payload
// for completed jobs. Returns nil when the job does not exist.
func (s *JobService) Snapshot(ctx context.Context, id string) (*JobSnapshot, error) {
	job, err := s.repos.Job.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	snap := &JobSnapshot{
		ID:         job.ID,
		URL:        job.URL,
		Status:     job.Status,
		StatusText: statusText(job.Status),
		Progress:   job.Progress,
		Finished:   job.Finished(),
		Metadata:   job.MetadataJSON,
	}

	switch job.Status {
	case models.JobStatusFailed:
		snap.ErrorMessage = job.ErrorMessage
	case models.JobStatusCompleted:
		if job.ProductID != nil {
			view, err := s.catalog.GetProductView(ctx, *job.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to load job result: %w", err)
			}
			snap.Result = view
		}
	}

	return snap, nil
}

// statusText maps a job status to the human-readable text shown to pollers.
func statusText(status models.JobStatus) string {
	switch status {
	case models.JobStatusQueued:
		return "Waiting in queue"
	case models.JobStatusProcessing:
		return "Extracting product data"
	case models.JobStatusCompleted:
		return "Extraction complete"
	case models.JobStatusFailed:
		return "Extraction failed"
	default:
		return string(status)
	}
}
