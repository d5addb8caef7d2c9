// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"

	"github.com/valuelens/valuelens-api/internal/service"
	"github.com/valuelens/valuelens-api/internal/version"
)

// Handlers bundles every handler group for route registration.
type Handlers struct {
	Job     *JobHandler
	Product *ProductHandler
}

// New creates all handler groups.
func New(services *service.Services) *Handlers {
	return &Handlers{
		Job:     NewJobHandler(services.Job),
		Product: NewProductHandler(services.Catalog),
	}
}

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Version
	return out, nil
}
