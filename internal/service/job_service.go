package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"pdf-ocr-service/internal/entity"
)

// Repository port (implementation: postgresql.JobRepository).
type JobRepository interface {
	Create(ctx context.Context, traceID, objectURL string, filename *string) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	GetExtraction(ctx context.Context, traceID string) (*entity.Extraction, error)
	ListPoints(ctx context.Context, traceID string) ([]entity.Point, error)
	GetReviewEntry(ctx context.Context, id int64) (*entity.ReviewQueueEntry, string, error)
}

var ErrNotPDF = errors.New("object_url must reference a .pdf file")

type JobService struct {
	repo JobRepository
}

func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

type CreateJobRequest struct {
	ObjectURL string
	TraceID   string
	Filename  *string
}

// CreateJob registers a pending ingestion job. The .pdf constraint is
// enforced here at the boundary; the worker re-validates it defensively
// before processing. A missing trace id gets a generated uuid.
func (s *JobService) CreateJob(ctx context.Context, req CreateJobRequest) (uuid.UUID, string, error) {
	if req.ObjectURL == "" {
		return uuid.Nil, "", errors.New("object_url is required")
	}
	if !strings.HasSuffix(strings.ToLower(req.ObjectURL), ".pdf") {
		return uuid.Nil, "", ErrNotPDF
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	id, err := s.repo.Create(ctx, traceID, req.ObjectURL, req.Filename)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, traceID, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *JobService) GetExtraction(ctx context.Context, traceID string) (*entity.Extraction, []entity.Point, error) {
	ex, err := s.repo.GetExtraction(ctx, traceID)
	if err != nil {
		return nil, nil, err
	}
	pts, err := s.repo.ListPoints(ctx, traceID)
	if err != nil {
		return nil, nil, err
	}
	return ex, pts, nil
}

func (s *JobService) GetReviewEntry(ctx context.Context, id int64) (*entity.ReviewQueueEntry, string, error) {
	return s.repo.GetReviewEntry(ctx, id)
}
