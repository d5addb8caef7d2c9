package handlers

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"
)

// ProbeOutput represents a Kubernetes probe response.
type ProbeOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez reports process liveness.
func Livez(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	out := &ProbeOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// Readyz returns a readiness probe that checks database connectivity.
func Readyz(db *sql.DB) func(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	return func(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
		if err := db.PingContext(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("database unavailable")
		}
		out := &ProbeOutput{}
		out.Body.Status = "ok"
		return out, nil
	}
}
