// Package routes registers all API routes with Huma.
package routes

import (
	"database/sql"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/valuelens/valuelens-api/internal/http/handlers"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *handlers.Handlers, db *sql.DB) {
	// Health check
	huma.Register(api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, handlers.HealthCheck)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Register(api, huma.Operation{
		OperationID: "livez",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Hidden:      true,
	}, handlers.Livez)
	huma.Register(api, huma.Operation{
		OperationID: "readyz",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Hidden:      true,
	}, handlers.Readyz(db))

	// --- Extractions ---
	huma.Register(api, huma.Operation{
		OperationID:   "createExtraction",
		Method:        http.MethodPost,
		Path:          "/api/v1/extractions",
		Summary:       "Submit a product page for extraction",
		Tags:          []string{"Extractions"},
		DefaultStatus: http.StatusCreated,
	}, h.Job.CreateExtraction)

	// --- Jobs ---
	huma.Register(api, huma.Operation{
		OperationID: "listJobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List jobs",
		Tags:        []string{"Jobs"},
	}, h.Job.ListJobs)
	huma.Register(api, huma.Operation{
		OperationID: "getJob",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Get job status",
		Description: "Polling snapshot of a job: status, progress and, once completed, the ranked product payload.",
		Tags:        []string{"Jobs"},
	}, h.Job.GetJob)

	// --- Products ---
	huma.Register(api, huma.Operation{
		OperationID: "getProduct",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get product with ranked variants",
		Tags:        []string{"Products"},
	}, h.Product.GetProduct)
}
