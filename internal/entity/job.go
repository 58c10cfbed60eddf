package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
)

// Job is one PDF ingestion request. trace_id correlates the job with its
// extraction, points and review entries and is stable across retries.
type Job struct {
	ID         uuid.UUID `json:"id"`
	TraceID    string    `json:"trace_id"`
	ObjectURL  string    `json:"object_url"`
	Filename   *string   `json:"filename,omitempty"`
	Status     JobStatus `json:"status"`
	RetryCount int       `json:"retry_count"`
	LastError  *string   `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
