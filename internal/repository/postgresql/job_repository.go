package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pdf-ocr-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, trace_id, object_url, filename, status, retry_count, last_error, created_at, updated_at`

func scanJob(row pgx.Row) (*entity.Job, error) {
	var (
		job    entity.Job
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.TraceID,
		&job.ObjectURL,
		&job.Filename,
		&status,
		&job.RetryCount,
		&job.LastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = entity.JobStatus(status)
	return &job, nil
}

func (r *JobRepository) Create(ctx context.Context, traceID, objectURL string, filename *string) (uuid.UUID, error) {
	const q = `
INSERT INTO pdf_jobs (trace_id, object_url, filename, status)
VALUES ($1, $2, $3, 'pending')
RETURNING id;
`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, traceID, objectURL, filename).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM pdf_jobs WHERE id = $1;`

	job, err := scanJob(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) GetByTraceID(ctx context.Context, traceID string) (*entity.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM pdf_jobs WHERE trace_id = $1;`

	job, err := scanJob(r.pool.QueryRow(ctx, q, traceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimNextPending atomically selects the oldest pending job and marks it
// processing. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming
// the same job; returns (nil, nil) when nothing is pending.
func (r *JobRepository) ClaimNextPending(ctx context.Context) (*entity.Job, error) {
	const q = `
UPDATE pdf_jobs SET status = 'processing', updated_at = now()
WHERE id = (
    SELECT id FROM pdf_jobs
    WHERE status = 'pending'
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns + `;
`
	job, err := scanJob(r.pool.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// Requeue returns a failed job to the pending pool with its new retry count
// and last error message.
func (r *JobRepository) Requeue(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	const q = `
UPDATE pdf_jobs SET status = 'pending', retry_count = $2, last_error = $3, updated_at = now()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, q, id, retryCount, lastError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed moves a job to its terminal failed state.
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	const q = `
UPDATE pdf_jobs SET status = 'failed', retry_count = $2, last_error = $3, updated_at = now()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, q, id, retryCount, lastError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveResult commits the extraction, its points, one review entry per point
// and the job's done status in a single transaction. A failure anywhere rolls
// everything back, leaving the job retryable. Returns the review entry ids.
func (r *JobRepository) SaveResult(ctx context.Context, jobID uuid.UUID, ex *entity.Extraction, points []entity.Point) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertExtraction = `
INSERT INTO pdf_extractions (trace_id, raw_text, points, confidence, method, pages)
VALUES ($1, $2, $3, $4, $5, $6);
`
	payload := ex.Points
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if _, err := tx.Exec(ctx, insertExtraction,
		ex.TraceID, ex.RawText, payload, ex.Confidence, ex.Method, ex.Pages,
	); err != nil {
		return nil, fmt.Errorf("insert extraction: %w", err)
	}

	const insertPoint = `
INSERT INTO pdf_points (trace_id, point_text, ordinal)
VALUES ($1, $2, $3)
RETURNING id;
`
	const insertReview = `
INSERT INTO pdf_review_queue (trace_id, point_id, reviewer_id, status)
VALUES ($1, $2, NULL, 'pending')
RETURNING id;
`
	entryIDs := make([]int64, 0, len(points))
	for _, p := range points {
		var pointID int64
		if err := tx.QueryRow(ctx, insertPoint, p.TraceID, p.Text, p.Ordinal).Scan(&pointID); err != nil {
			return nil, fmt.Errorf("insert point %d: %w", p.Ordinal, err)
		}
		var entryID int64
		if err := tx.QueryRow(ctx, insertReview, p.TraceID, pointID).Scan(&entryID); err != nil {
			return nil, fmt.Errorf("insert review entry for point %d: %w", p.Ordinal, err)
		}
		entryIDs = append(entryIDs, entryID)
	}

	const markDone = `UPDATE pdf_jobs SET status = 'done', updated_at = now() WHERE id = $1;`
	tag, err := tx.Exec(ctx, markDone, jobID)
	if err != nil {
		return nil, fmt.Errorf("mark done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entryIDs, nil
}

func (r *JobRepository) GetExtraction(ctx context.Context, traceID string) (*entity.Extraction, error) {
	const q = `
SELECT id, trace_id, raw_text, points, confidence, method, pages, created_at
FROM pdf_extractions
WHERE trace_id = $1;
`
	var (
		ex     entity.Extraction
		points []byte
	)
	if err := r.pool.QueryRow(ctx, q, traceID).Scan(
		&ex.ID, &ex.TraceID, &ex.RawText, &points, &ex.Confidence, &ex.Method, &ex.Pages, &ex.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ex.Points = json.RawMessage(points)
	return &ex, nil
}

func (r *JobRepository) ListPoints(ctx context.Context, traceID string) ([]entity.Point, error) {
	const q = `
SELECT id, trace_id, point_text, ordinal
FROM pdf_points
WHERE trace_id = $1
ORDER BY ordinal ASC;
`
	rows, err := r.pool.Query(ctx, q, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pts []entity.Point
	for rows.Next() {
		var p entity.Point
		if err := rows.Scan(&p.ID, &p.TraceID, &p.Text, &p.Ordinal); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, rows.Err()
}

// GetReviewEntry loads one review entry together with its point's text.
func (r *JobRepository) GetReviewEntry(ctx context.Context, id int64) (*entity.ReviewQueueEntry, string, error) {
	const q = `
SELECT rq.id, rq.trace_id, rq.point_id, rq.reviewer_id, rq.status, rq.created_at, p.point_text
FROM pdf_review_queue rq
JOIN pdf_points p ON p.id = rq.point_id
WHERE rq.id = $1;
`
	var (
		entry     entity.ReviewQueueEntry
		pointText string
	)
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&entry.ID, &entry.TraceID, &entry.PointID, &entry.ReviewerID, &entry.Status, &entry.CreatedAt, &pointText,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return &entry, pointText, nil
}

// LogStage appends one row to the processing log. Best effort from callers'
// point of view; failures here never change job state.
func (r *JobRepository) LogStage(ctx context.Context, jobID uuid.UUID, stage, message string) error {
	const q = `INSERT INTO pdf_processing_log (job_id, stage, message) VALUES ($1, $2, $3);`
	_, err := r.pool.Exec(ctx, q, jobID, stage, message)
	return err
}
