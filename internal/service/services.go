package service

import (
	"log/slog"

	"github.com/valuelens/valuelens-api/internal/config"
	"github.com/valuelens/valuelens-api/internal/extractor"
	"github.com/valuelens/valuelens-api/internal/fetcher"
	"github.com/valuelens/valuelens-api/internal/llm"
	"github.com/valuelens/valuelens-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Catalog  *CatalogService
	Job      *JobService
	Pipeline *PipelineService
}

// NewServices wires the full service graph from configuration.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) *Services {
	pageFetcher := fetcher.New(fetcher.Config{
		Timeout:      cfg.FetchTimeout,
		Retries:      cfg.FetchRetries,
		RetryDelay:   cfg.FetchRetryDelay,
		MaxRedirects: cfg.FetchRedirects,
		UserAgent:    cfg.FetchUserAgent,
	}, logger)

	llmClient := llm.New(llm.Config{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, logger)

	productExtractor := extractor.New(llmClient, logger)

	catalogSvc := NewCatalogService(repos, logger)
	jobSvc := NewJobService(repos, catalogSvc, logger)
	pipelineSvc := NewPipelineService(repos, pageFetcher, productExtractor, catalogSvc, logger)

	return &Services{
		Catalog:  catalogSvc,
		Job:      jobSvc,
		Pipeline: pipelineSvc,
	}
}
