// Package extractor turns raw product-page HTML into validated, typed
// product-variant data using an LLM completion call.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/valuelens/valuelens-api/internal/llm"
)

// CompletionClient is the LLM capability the extractor depends on.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (*llm.Result, error)
}

// ExtractedProduct is the validated product section of an extraction.
// Nothing upstream of validation ever sees this type.
type ExtractedProduct struct {
	Name        string
	Description string
	Variants    []ExtractedVariant
}

// ExtractedVariant is one validated purchasable option.
type ExtractedVariant struct {
	Name            string
	QuantityText    *string
	QuantityNumeric *float64
	PriceCents      int64
	Currency        string
}

// Result holds the outcome of an extraction whose LLM call succeeded.
// Data is nil when the response content failed validation; Errors then
// lists every violation found.
type Result struct {
	Data        *ExtractedProduct
	RawResponse string
	Errors      []string
}

// Extractor drives the extraction prompt and response validation.
type Extractor struct {
	client CompletionClient
	logger *slog.Logger
}

// New creates an extractor backed by client.
func New(client CompletionClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract sends html and url to the LLM and parses the structured response.
// Transport failures (auth, rate limit, timeout and so on) are returned as a
// classified error; content failures produce a Result with nil Data and the
// violations in Errors. No retries happen at this layer.
func (e *Extractor) Extract(ctx context.Context, html, url string) (*Result, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.New("HTML content cannot be blank")
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("URL cannot be blank")
	}

	prompt := buildPrompt(html, url)

	resp, err := e.client.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("extraction call failed",
			"url", url,
			"category", llm.GetCategory(err),
			"error", err,
		)
		return nil, err
	}

	result := &Result{RawResponse: resp.Content}

	data, errs := parseAndValidate(resp.Content)
	if len(errs) > 0 {
		e.logger.Warn("extraction content rejected", "url", url, "errors", errs)
		result.Errors = errs
		return result, nil
	}

	result.Data = data
	e.logger.Info("extraction succeeded",
		"url", url,
		"variant_count", len(data.Variants),
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return result, nil
}
