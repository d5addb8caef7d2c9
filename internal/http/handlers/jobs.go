package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/valuelens/valuelens-api/internal/service"
)

// JobHandler handles job submission and polling endpoints.
type JobHandler struct {
	jobSvc *service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobSvc *service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// CreateExtractionInput represents extraction job creation request.
type CreateExtractionInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" example:"https://example.com/products/coke" doc:"Product page URL to extract variants from"`
	}
}

// CreateExtractionOutput represents extraction job creation response.
type CreateExtractionOutput struct {
	Status int
	Body   struct {
		JobID     string `json:"job_id" example:"01HXYZ123ABC456DEF789" doc:"Unique job identifier (ULID)"`
		Status    string `json:"status" example:"queued" doc:"Job status: queued, processing, completed, failed"`
		StatusURL string `json:"status_url" doc:"URL to poll for job status"`
	}
}

// CreateExtraction enqueues an extraction job for a product page URL.
func (h *JobHandler) CreateExtraction(ctx context.Context, input *CreateExtractionInput) (*CreateExtractionOutput, error) {
	job, err := h.jobSvc.CreateExtractionJob(ctx, input.Body.URL)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	out := &CreateExtractionOutput{Status: 201}
	out.Body.JobID = job.ID
	out.Body.Status = string(job.Status)
	out.Body.StatusURL = "/api/v1/jobs/" + job.ID
	return out, nil
}

// JobSnapshotBody is the polling view of a job. The result payload is
// present only for completed jobs, the error message only for failed ones.
type JobSnapshotBody struct {
	ID           string          `json:"id"`
	URL          string          `json:"url"`
	Status       string          `json:"status" example:"processing"`
	StatusText   string          `json:"status_text" example:"Extracting product data"`
	Progress     int             `json:"progress" minimum:"0" maximum:"100"`
	Finished     bool            `json:"finished" doc:"True once the job reached a terminal state"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       *ProductPayload `json:"result,omitempty"`
}

// GetJobInput represents a job status request.
type GetJobInput struct {
	ID string `path:"id" doc:"Job ID"`
}

// GetJobOutput represents a job status response.
type GetJobOutput struct {
	Body JobSnapshotBody
}

// GetJob returns the polling snapshot for a job.
func (h *JobHandler) GetJob(ctx context.Context, input *GetJobInput) (*GetJobOutput, error) {
	snap, err := h.jobSvc.Snapshot(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load job: " + err.Error())
	}
	if snap == nil {
		return nil, huma.Error404NotFound("job not found")
	}

	out := &GetJobOutput{
		Body: JobSnapshotBody{
			ID:           snap.ID,
			URL:          snap.URL,
			Status:       string(snap.Status),
			StatusText:   snap.StatusText,
			Progress:     snap.Progress,
			Finished:     snap.Finished,
			ErrorMessage: snap.ErrorMessage,
		},
	}
	if snap.Result != nil {
		out.Body.Result = productPayload(snap.Result)
	}
	return out, nil
}

// ListJobsInput represents a job listing request.
type ListJobsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum jobs to return"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Jobs to skip"`
}

// JobSummary is one row of the job listing.
type JobSummary struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Finished bool   `json:"finished"`
}

// ListJobsOutput represents a job listing response.
type ListJobsOutput struct {
	Body struct {
		Jobs []JobSummary `json:"jobs"`
	}
}

// ListJobs returns jobs newest-first.
func (h *JobHandler) ListJobs(ctx context.Context, input *ListJobsInput) (*ListJobsOutput, error) {
	jobs, err := h.jobSvc.ListJobs(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list jobs: " + err.Error())
	}

	out := &ListJobsOutput{}
	out.Body.Jobs = make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		out.Body.Jobs = append(out.Body.Jobs, JobSummary{
			ID:       job.ID,
			URL:      job.URL,
			Status:   string(job.Status),
			Progress: job.Progress,
			Finished: job.Finished(),
		})
	}
	return out, nil
}
