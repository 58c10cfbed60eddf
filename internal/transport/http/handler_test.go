package httptransport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ocr-service/internal/entity"
	"pdf-ocr-service/internal/service"
	httptransport "pdf-ocr-service/internal/transport/http"
)

type fakeRepo struct {
	job     *entity.Job
	ex      *entity.Extraction
	pts     []entity.Point
	entry   *entity.ReviewQueueEntry
	pointTx string
}

func (r *fakeRepo) Create(ctx context.Context, traceID, objectURL string, filename *string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	if r.job == nil || r.job.ID != id {
		return nil, errors.New("not found")
	}
	return r.job, nil
}

func (r *fakeRepo) GetExtraction(ctx context.Context, traceID string) (*entity.Extraction, error) {
	if r.ex == nil {
		return nil, errors.New("not found")
	}
	return r.ex, nil
}

func (r *fakeRepo) ListPoints(ctx context.Context, traceID string) ([]entity.Point, error) {
	return r.pts, nil
}

func (r *fakeRepo) GetReviewEntry(ctx context.Context, id int64) (*entity.ReviewQueueEntry, string, error) {
	if r.entry == nil || r.entry.ID != id {
		return nil, "", errors.New("not found")
	}
	return r.entry, r.pointTx, nil
}

type fakeFeed struct {
	ids []int64
	err error
}

func (f *fakeFeed) Push(ctx context.Context, entryIDs []int64) error {
	f.ids = append(f.ids, entryIDs...)
	return nil
}

func (f *fakeFeed) Next(ctx context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(f.ids) == 0 {
		return 0, service.ErrFeedEmpty
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

func newTestServer(repo *fakeRepo, feed service.ReviewFeed) http.Handler {
	svc := service.NewJobService(repo)
	h := httptransport.NewHandler(svc, feed, zerolog.Nop())
	return httptransport.Routes(h)
}

func TestCreateJob_Created(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	body := `{"object_url":"https://cdn.example.com/report.pdf","trace_id":"batch-7"}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID      string `json:"id"`
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Fatalf("id %q is not a uuid", resp.ID)
	}
	if resp.TraceID != "batch-7" {
		t.Fatalf("trace_id = %q", resp.TraceID)
	}
}

func TestCreateJob_RejectsNonPDF(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	body := `{"object_url":"https://cdn.example.com/report.txt"}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateJob_RejectsBadJSON(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetJob_OK(t *testing.T) {
	job := &entity.Job{
		ID:        uuid.New(),
		TraceID:   "trace-1",
		ObjectURL: "https://cdn.example.com/report.pdf",
		Status:    entity.StatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	srv := newTestServer(&fakeRepo{job: job}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "processing" {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetJob_BadID(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetJobExtraction_ConflictWhileProcessing(t *testing.T) {
	job := &entity.Job{ID: uuid.New(), TraceID: "trace-1", Status: entity.StatusProcessing}
	srv := newTestServer(&fakeRepo{job: job}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/extraction", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetJobExtraction_OK(t *testing.T) {
	job := &entity.Job{ID: uuid.New(), TraceID: "trace-1", Status: entity.StatusDone}
	repo := &fakeRepo{
		job: job,
		ex: &entity.Extraction{
			TraceID:    "trace-1",
			RawText:    "1. Approve budget\n- Adjourn",
			Confidence: 0.8,
			Method:     "pdf-ocr",
			Pages:      2,
		},
		pts: []entity.Point{
			{ID: 1, TraceID: "trace-1", Text: "1. Approve budget", Ordinal: 1},
			{ID: 2, TraceID: "trace-1", Text: "- Adjourn", Ordinal: 2},
		},
	}
	srv := newTestServer(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/extraction", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Method string `json:"method"`
		Points []struct {
			Ordinal int    `json:"ordinal"`
			Text    string `json:"point_text"`
		} `json:"points"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Method != "pdf-ocr" {
		t.Fatalf("method = %q", resp.Method)
	}
	if len(resp.Points) != 2 || resp.Points[0].Ordinal != 1 || resp.Points[1].Text != "- Adjourn" {
		t.Fatalf("unexpected points: %+v", resp.Points)
	}
}

func TestNextReview_FeedDisabled(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/review/next", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestNextReview_Empty(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakeFeed{})

	req := httptest.NewRequest(http.MethodGet, "/review/next", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestNextReview_OK(t *testing.T) {
	repo := &fakeRepo{
		entry:   &entity.ReviewQueueEntry{ID: 7, TraceID: "trace-1", PointID: 2, Status: entity.ReviewStatusPending},
		pointTx: "- Adjourn",
	}
	srv := newTestServer(repo, &fakeFeed{ids: []int64{7}})

	req := httptest.NewRequest(http.MethodGet, "/review/next", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		EntryID   int64  `json:"entry_id"`
		PointText string `json:"point_text"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EntryID != 7 || resp.PointText != "- Adjourn" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNextReview_FeedError(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakeFeed{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodGet, "/review/next", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
