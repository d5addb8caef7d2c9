// Package worker polls the job queue and dispatches claimed jobs to the
// extraction pipeline.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valuelens/valuelens-api/internal/repository"
)

// JobProcessor runs one job end to end. Errors mean the attempt failed
// unexpectedly; the job stays in a terminal state either way.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// Worker processes queued extraction jobs in the background.
type Worker struct {
	jobRepo      repository.JobRepository
	processor    JobProcessor
	pollInterval time.Duration
	concurrency  int
	stop         chan struct{}
	wg           sync.WaitGroup
	active       atomic.Int64
	logger       *slog.Logger
}

// Config holds worker configuration.
type Config struct {
	PollInterval time.Duration
	Concurrency  int
}

// New creates a new worker.
func New(jobRepo repository.JobRepository, processor JobProcessor, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobRepo:      jobRepo,
		processor:    processor,
		pollInterval: cfg.PollInterval,
		concurrency:  cfg.Concurrency,
		stop:         make(chan struct{}),
		logger:       logger.With("component", "worker"),
	}
}

// Start begins processing jobs.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting", "concurrency", w.concurrency, "poll_interval", w.pollInterval)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// Stop gracefully stops the worker, waiting for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.logger.Info("stopping")
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processNextJob(ctx, workerID)
		}
	}
}

// Busy reports whether any worker currently holds a claimed job.
func (w *Worker) Busy() bool {
	return w.active.Load() > 0
}

func (w *Worker) processNextJob(ctx context.Context, workerID int) {
	w.active.Add(1)
	defer w.active.Add(-1)

	job, err := w.jobRepo.ClaimQueued(ctx)
	if err != nil {
		w.logger.Error("failed to claim job", "worker_id", workerID, "error", err)
		return
	}
	if job == nil {
		return // No queued jobs
	}

	w.logger.Info("processing job", "worker_id", workerID, "job_id", job.ID, "url", job.URL)

	if err := w.processor.Process(ctx, job.ID); err != nil {
		// Stage failures are absorbed by the pipeline; anything surfacing
		// here is unexpected (storage, marshaling) and worth its own entry
		w.logger.Error("job processing error", "worker_id", workerID, "job_id", job.ID, "error", err)
		return
	}

	w.logger.Info("job finished", "worker_id", workerID, "job_id", job.ID)
}
