// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/valuelens/valuelens-api/internal/models"
)

// JobRepository defines methods for job data access.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, limit, offset int) ([]*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	// ClaimQueued atomically claims the oldest queued job and returns it,
	// or nil when no job is waiting.
	ClaimQueued(ctx context.Context) (*models.Job, error)
	// MarkStaleProcessingFailed fails jobs stuck in processing longer than
	// maxAge, e.g. after a server restart. Returns the number affected.
	MarkStaleProcessingFailed(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ProductRepository defines methods for product and variant data access.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByURL(ctx context.Context, url string) (*models.Product, error)
	// ReplaceVariants upserts the product by URL and swaps its entire
	// variant set in a single transaction. Variant IDs and ProductID are
	// assigned during the call.
	ReplaceVariants(ctx context.Context, product *models.Product, variants []*models.Variant) error
	// UpsertStatus locates or creates the product for url (using
	// defaultName when creating) and sets its status.
	UpsertStatus(ctx context.Context, url, defaultName string, status models.ProductStatus) (*models.Product, error)
	GetVariants(ctx context.Context, productID string) ([]*models.Variant, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	Job     JobRepository
	Product ProductRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Job:     NewSQLiteJobRepository(db),
		Product: NewSQLiteProductRepository(db),
	}
}
