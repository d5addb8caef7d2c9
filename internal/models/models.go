// Package models defines the domain models for the application.
package models

import (
	"time"
)

// JobStatus represents the status of an extraction job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one request to extract product data from a URL.
type Job struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"` // 0-100, advisory
	ProductID    *string    `json:"product_id,omitempty"`
	MetadataJSON string     `json:"metadata_json,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Finished reports whether the job has reached a terminal state.
func (j *Job) Finished() bool {
	return j.Status.Terminal()
}

// JobMetadata is the structured payload stored in Job.MetadataJSON on
// completion.
type JobMetadata struct {
	VariantCount       int    `json:"variant_count"`
	BestValueVariantID string `json:"best_value_variant_id,omitempty"`
	ProcessingTimeMs   int64  `json:"processing_time_ms"`
	FetchTimeMs        int64  `json:"fetch_time_ms,omitempty"`
	ExtractTimeMs      int64  `json:"extract_time_ms,omitempty"`
}

// ClampProgress bounds an advisory progress value to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ProductStatus mirrors the extraction state of a product.
type ProductStatus string

const (
	ProductStatusPending    ProductStatus = "pending"
	ProductStatusProcessing ProductStatus = "processing"
	ProductStatusCompleted  ProductStatus = "completed"
	ProductStatusFailed     ProductStatus = "failed"
)

// Product is the extracted real-world product, keyed uniquely by source URL.
// Re-extracting the same URL updates the row in place; it never duplicates.
type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Variant is one purchasable option of a product (a size/quantity/pack).
// PricePerUnit is derived at persistence time and is nil when the variant
// has no usable quantity; such variants are excluded from value ranking.
type Variant struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	Name            string    `json:"name"`
	QuantityText    *string   `json:"quantity_text,omitempty"`
	QuantityNumeric *float64  `json:"quantity_numeric,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	Currency        string    `json:"currency"`
	PricePerUnit    *int64    `json:"price_per_unit,omitempty"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
}
