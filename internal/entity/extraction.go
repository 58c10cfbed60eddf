package entity

import (
	"encoding/json"
	"time"
)

// Extraction is the text result of one successfully processed job.
// Written exactly once, never mutated.
type Extraction struct {
	ID         int64           `json:"id"`
	TraceID    string          `json:"trace_id"`
	RawText    string          `json:"raw_text"`
	Points     json.RawMessage `json:"points"`
	Confidence float32         `json:"confidence"`
	Method     string          `json:"method"`
	Pages      int             `json:"pages"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Point is one bullet/numbered line parsed out of the extracted text.
// Ordinal is 1-based and follows source order.
type Point struct {
	ID      int64  `json:"id"`
	TraceID string `json:"trace_id"`
	Text    string `json:"point_text"`
	Ordinal int    `json:"ordinal"`
}

// ReviewQueueEntry is a unit of human-review work for one point.
type ReviewQueueEntry struct {
	ID         int64     `json:"id"`
	TraceID    string    `json:"trace_id"`
	PointID    int64     `json:"point_id"`
	ReviewerID *string   `json:"reviewer_id,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

const ReviewStatusPending = "pending"
