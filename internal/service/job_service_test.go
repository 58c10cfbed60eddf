package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"pdf-ocr-service/internal/entity"
)

type fakeRepo struct {
	createdTrace string
	createdURL   string
	createdName  *string
	createCalls  int
	createErr    error

	job *entity.Job
}

func (r *fakeRepo) Create(ctx context.Context, traceID, objectURL string, filename *string) (uuid.UUID, error) {
	r.createCalls++
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	r.createdTrace = traceID
	r.createdURL = objectURL
	r.createdName = filename
	return uuid.New(), nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	if r.job == nil {
		return nil, errors.New("not found")
	}
	return r.job, nil
}

func (r *fakeRepo) GetExtraction(ctx context.Context, traceID string) (*entity.Extraction, error) {
	return &entity.Extraction{TraceID: traceID, RawText: "1. point"}, nil
}

func (r *fakeRepo) ListPoints(ctx context.Context, traceID string) ([]entity.Point, error) {
	return []entity.Point{{ID: 1, TraceID: traceID, Text: "1. point", Ordinal: 1}}, nil
}

func (r *fakeRepo) GetReviewEntry(ctx context.Context, id int64) (*entity.ReviewQueueEntry, string, error) {
	return &entity.ReviewQueueEntry{ID: id, Status: entity.ReviewStatusPending}, "1. point", nil
}

func TestCreateJob_GeneratesTraceID(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewJobService(repo)

	id, traceID, err := svc.CreateJob(context.Background(), CreateJobRequest{
		ObjectURL: "https://cdn.example.com/report.pdf",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil job id")
	}
	if _, err := uuid.Parse(traceID); err != nil {
		t.Fatalf("trace id %q is not a uuid: %v", traceID, err)
	}
	if repo.createdTrace != traceID {
		t.Fatalf("repo got trace %q, want %q", repo.createdTrace, traceID)
	}
}

func TestCreateJob_KeepsProvidedTraceID(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewJobService(repo)

	_, traceID, err := svc.CreateJob(context.Background(), CreateJobRequest{
		ObjectURL: "https://cdn.example.com/report.pdf",
		TraceID:   "batch-42",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if traceID != "batch-42" {
		t.Fatalf("trace id = %q, want batch-42", traceID)
	}
}

func TestCreateJob_RejectsNonPDF(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewJobService(repo)

	_, _, err := svc.CreateJob(context.Background(), CreateJobRequest{
		ObjectURL: "https://cdn.example.com/report.txt",
	})
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
	if repo.createCalls != 0 {
		t.Fatal("rejected request must not reach the repository")
	}
}

func TestCreateJob_RejectsEmptyURL(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewJobService(repo)

	_, _, err := svc.CreateJob(context.Background(), CreateJobRequest{})
	if err == nil {
		t.Fatal("expected error for empty object_url")
	}
	if repo.createCalls != 0 {
		t.Fatal("rejected request must not reach the repository")
	}
}

func TestGetExtraction_ReturnsPoints(t *testing.T) {
	svc := NewJobService(&fakeRepo{})

	ex, pts, err := svc.GetExtraction(context.Background(), "trace-1")
	if err != nil {
		t.Fatalf("GetExtraction: %v", err)
	}
	if ex.TraceID != "trace-1" {
		t.Fatalf("trace id = %q", ex.TraceID)
	}
	if len(pts) != 1 || pts[0].Ordinal != 1 {
		t.Fatalf("unexpected points: %+v", pts)
	}
}
