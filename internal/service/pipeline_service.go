package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valuelens/valuelens-api/internal/extractor"
	"github.com/valuelens/valuelens-api/internal/logging"
	"github.com/valuelens/valuelens-api/internal/models"
	"github.com/valuelens/valuelens-api/internal/repository"
)

// PageFetcher retrieves page HTML for a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProductExtractor turns page HTML into structured product data.
type ProductExtractor interface {
	Extract(ctx context.Context, html, url string) (*extractor.Result, error)
}

// Progress checkpoints emitted while the stages run. Values are advisory;
// only monotonicity and the terminal 0/100 matter to consumers.
const (
	progressClaimed   = 5
	progressFetched   = 25
	progressExtracted = 60
	progressValidated = 80
	progressDone      = 100
)

// PipelineService drives one job through fetch, extract, validate and
// persist, updating the job record as it goes.
type PipelineService struct {
	repos     *repository.Repositories
	fetcher   PageFetcher
	extractor ProductExtractor
	catalog   *CatalogService
	logger    *slog.Logger
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	repos *repository.Repositories,
	fetcher PageFetcher,
	productExtractor ProductExtractor,
	catalog *CatalogService,
	logger *slog.Logger,
) *PipelineService {
	return &PipelineService{
		repos:     repos,
		fetcher:   fetcher,
		extractor: productExtractor,
		catalog:   catalog,
		logger:    logger,
	}
}

// Process runs the full pipeline for jobID. Already-terminal jobs are
// skipped, which makes duplicate delivery from the queue harmless. Stage
// failures produce a terminal failed job and return nil; only unexpected
// errors (storage and the like) are returned so the caller's retry policy
// can act on them.
func (s *PipelineService) Process(ctx context.Context, jobID string) error {
	ctx = logging.WithJobID(ctx, jobID)
	logger := logging.FromContext(ctx, s.logger)

	job, err := s.repos.Job.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	if job.Status.Terminal() {
		logger.Info("job already finished, skipping", "status", job.Status)
		return nil
	}

	start := time.Now()

	// Start: claim the job and flag the product row
	if job.Status != models.JobStatusProcessing {
		job.Status = models.JobStatusProcessing
		now := time.Now()
		job.StartedAt = &now
	}
	if err := s.advance(ctx, job, progressClaimed); err != nil {
		return err
	}
	if err := s.catalog.MarkProcessing(ctx, job.URL); err != nil {
		return fmt.Errorf("failed to mark product processing: %w", err)
	}

	logger.Info("pipeline started", "url", job.URL)

	// Fetch
	fetchStart := time.Now()
	html, err := s.fetcher.Fetch(ctx, job.URL)
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		return s.failJob(ctx, job, err.Error())
	}
	if err := s.advance(ctx, job, progressFetched); err != nil {
		return err
	}

	// Extract
	extractStart := time.Now()
	result, err := s.extractor.Extract(ctx, html, job.URL)
	extractMs := time.Since(extractStart).Milliseconds()
	if err != nil {
		return s.failJob(ctx, job, err.Error())
	}
	if err := s.advance(ctx, job, progressExtracted); err != nil {
		return err
	}

	// Validate
	if result.Data == nil {
		message := "No structured data extracted from page"
		if len(result.Errors) > 0 {
			message = strings.Join(result.Errors, "; ")
		}
		return s.failJob(ctx, job, message)
	}
	if err := s.advance(ctx, job, progressValidated); err != nil {
		return err
	}

	// Persist
	saved, err := s.catalog.Save(ctx, result.Data, job.URL)
	if err != nil {
		// Storage failure, not a content problem. Mark everything failed
		// and re-raise for the queue's retry policy.
		if failErr := s.failJob(ctx, job, "Failed to save extraction result"); failErr != nil {
			logger.Error("failed to record job failure", "error", failErr)
		}
		return fmt.Errorf("failed to persist extraction: %w", err)
	}
	if len(saved.Errors) > 0 {
		return s.failJob(ctx, job, strings.Join(saved.Errors, "; "))
	}

	metadata := models.JobMetadata{
		VariantCount:     len(saved.Variants),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FetchTimeMs:      fetchMs,
		ExtractTimeMs:    extractMs,
	}
	if saved.BestValue != nil {
		metadata.BestValueVariantID = saved.BestValue.ID
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = progressDone
	job.ProductID = &saved.Product.ID
	job.MetadataJSON = string(metadataJSON)
	job.CompletedAt = &now
	if err := s.repos.Job.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	logger.Info("pipeline completed",
		"url", job.URL,
		"product_id", saved.Product.ID,
		"variant_count", len(saved.Variants),
		"duration_ms", metadata.ProcessingTimeMs,
	)
	return nil
}

// advance bumps the job's progress checkpoint. Progress never moves
// backwards here; failures reset it through failJob instead.
func (s *PipelineService) advance(ctx context.Context, job *models.Job, progress int) error {
	if progress > job.Progress {
		job.Progress = progress
	}
	if err := s.repos.Job.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// failJob records a terminal stage failure on both the job and its product.
func (s *PipelineService) failJob(ctx context.Context, job *models.Job, message string) error {
	logger := logging.FromContext(ctx, s.logger)
	logger.Warn("pipeline failed", "url", job.URL, "reason", message)

	if err := s.catalog.MarkFailed(ctx, job.URL, message); err != nil {
		logger.Error("failed to mark product failed", "error", err)
	}

	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Progress = 0
	job.ErrorMessage = message
	job.CompletedAt = &now
	if err := s.repos.Job.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	return nil
}
