package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/valuelens/valuelens-api/internal/models"
)

// SQLiteJobRepository implements JobRepository for SQLite.
type SQLiteJobRepository struct {
	db *sql.DB
}

// NewSQLiteJobRepository creates a new SQLite job repository.
func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

const jobColumns = `id, url, status, progress, product_id, metadata_json,
	error_message, started_at, completed_at, created_at, updated_at`

func (r *SQLiteJobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (id, url, status, progress, product_id, metadata_json,
			error_message, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.URL,
		job.Status,
		models.ClampProgress(job.Progress),
		nullStringPtr(job.ProductID),
		nullString(job.MetadataJSON),
		nullString(job.ErrorMessage),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.CreatedAt.Format(time.RFC3339),
		job.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	return r.scanJob(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteJobRepository) List(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *SQLiteJobRepository) Update(ctx context.Context, job *models.Job) error {
	query := `
		UPDATE jobs SET status = ?, progress = ?, product_id = ?, metadata_json = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Status,
		models.ClampProgress(job.Progress),
		nullStringPtr(job.ProductID),
		nullString(job.MetadataJSON),
		nullString(job.ErrorMessage),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		time.Now().Format(time.RFC3339),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) ClaimQueued(ctx context.Context) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// UPDATE ... RETURNING claims and fetches in one statement, keeping lock
	// contention low when several workers poll the same table
	now := time.Now().Format(time.RFC3339)
	query := `
		UPDATE jobs
		SET status = 'processing', started_at = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'queued'
			ORDER BY created_at ASC
			LIMIT 1
		)
		RETURNING ` + jobColumns

	job, err := r.scanJob(tx.QueryRowContext(ctx, query, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		// No queued jobs - this is normal, not an error
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return job, nil
}

// MarkStaleProcessingFailed fails jobs left in processing state, typically
// due to a server restart mid-run.
func (r *SQLiteJobRepository) MarkStaleProcessingFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Format(time.RFC3339)
	now := time.Now().Format(time.RFC3339)

	query := `
		UPDATE jobs
		SET status = ?, progress = 0, error_message = ?, completed_at = ?, updated_at = ?
		WHERE status = ? AND started_at < ?
	`
	result, err := r.db.ExecContext(ctx, query,
		models.JobStatusFailed,
		"Job terminated: server restart or timeout",
		now,
		now,
		models.JobStatusProcessing,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale jobs as failed: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

func (r *SQLiteJobRepository) scanJob(row *sql.Row) (*models.Job, error) {
	var job models.Job
	var createdAt, updatedAt string
	var productID, metadataJSON, errorMessage sql.NullString
	var startedAt, completedAt sql.NullString

	err := row.Scan(
		&job.ID, &job.URL, &job.Status, &job.Progress,
		&productID, &metadataJSON, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	applyJobNullables(&job, productID, metadataJSON, errorMessage, startedAt, completedAt, createdAt, updatedAt)
	return &job, nil
}

func (r *SQLiteJobRepository) scanJobFromRows(rows *sql.Rows) (*models.Job, error) {
	var job models.Job
	var createdAt, updatedAt string
	var productID, metadataJSON, errorMessage sql.NullString
	var startedAt, completedAt sql.NullString

	err := rows.Scan(
		&job.ID, &job.URL, &job.Status, &job.Progress,
		&productID, &metadataJSON, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	applyJobNullables(&job, productID, metadataJSON, errorMessage, startedAt, completedAt, createdAt, updatedAt)
	return &job, nil
}

func applyJobNullables(job *models.Job, productID, metadataJSON, errorMessage, startedAt, completedAt sql.NullString, createdAt, updatedAt string) {
	if productID.Valid {
		job.ProductID = &productID.String
	}
	job.MetadataJSON = metadataJSON.String
	job.ErrorMessage = errorMessage.String
	job.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if startedAt.Valid {
		t, _ := time.Parse(time.RFC3339, startedAt.String)
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		job.CompletedAt = &t
	}
}

// Helper functions
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
