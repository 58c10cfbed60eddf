package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ocr-service/internal/entity"
	"pdf-ocr-service/internal/service"
)

type Handler struct {
	jobSvc *service.JobService
	feed   service.ReviewFeed // nil when the feed is disabled
	log    zerolog.Logger
}

func NewHandler(jobSvc *service.JobService, feed service.ReviewFeed, log zerolog.Logger) *Handler {
	return &Handler{jobSvc: jobSvc, feed: feed, log: log}
}

type createJobDTO struct {
	ObjectURL string  `json:"object_url"`
	TraceID   string  `json:"trace_id,omitempty"`
	Filename  *string `json:"filename,omitempty"`
}

type createJobResp struct {
	ID      string `json:"id"`
	TraceID string `json:"trace_id"`
}

type jobResp struct {
	ID         string           `json:"id"`
	TraceID    string           `json:"trace_id"`
	ObjectURL  string           `json:"object_url"`
	Filename   *string          `json:"filename,omitempty"`
	Status     entity.JobStatus `json:"status"`
	RetryCount int              `json:"retry_count"`
	LastError  *string          `json:"last_error,omitempty"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

type pointResp struct {
	ID      int64  `json:"id"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"point_text"`
}

type extractionResp struct {
	TraceID    string      `json:"trace_id"`
	RawText    string      `json:"raw_text"`
	Confidence float32     `json:"confidence"`
	Method     string      `json:"method"`
	Pages      int         `json:"pages"`
	Points     []pointResp `json:"points"`
}

type reviewItemResp struct {
	EntryID   int64  `json:"entry_id"`
	TraceID   string `json:"trace_id"`
	PointID   int64  `json:"point_id"`
	PointText string `json:"point_text"`
	Status    string `json:"status"`
}

// CreateJob godoc
// @Summary Submit a PDF for ingestion
// @Description Creates a pending job; the worker picks it up oldest-first. object_url must end in .pdf. A missing trace_id gets a generated uuid.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body createJobDTO true "job payload"
// @Success 201 {object} createJobResp
// @Failure 400 {object} apiError
// @Router /jobs [post]
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var dto createJobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, traceID, err := h.jobSvc.CreateJob(r.Context(), service.CreateJobRequest{
		ObjectURL: dto.ObjectURL,
		TraceID:   dto.TraceID,
		Filename:  dto.Filename,
	})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createJobResp{ID: id.String(), TraceID: traceID})
}

// GetJob godoc
// @Summary Get job by id
// @Tags jobs
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} jobResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	j, err := h.jobSvc.GetJob(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, jobResp{
		ID:         j.ID.String(),
		TraceID:    j.TraceID,
		ObjectURL:  j.ObjectURL,
		Filename:   j.Filename,
		Status:     j.Status,
		RetryCount: j.RetryCount,
		LastError:  j.LastError,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	})
}

// GetJobExtraction godoc
// @Summary Get the extraction result of a done job
// @Tags jobs
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} extractionResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /jobs/{id}/extraction [get]
func (h *Handler) GetJobExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	j, err := h.jobSvc.GetJob(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "job not found")
		return
	}
	if j.Status != entity.StatusDone {
		writeErr(w, http.StatusConflict, "job not done")
		return
	}

	ex, pts, err := h.jobSvc.GetExtraction(r.Context(), j.TraceID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "extraction not found")
		return
	}

	resp := extractionResp{
		TraceID:    ex.TraceID,
		RawText:    ex.RawText,
		Confidence: ex.Confidence,
		Method:     ex.Method,
		Pages:      ex.Pages,
		Points:     make([]pointResp, 0, len(pts)),
	}
	for _, p := range pts {
		resp.Points = append(resp.Points, pointResp{ID: p.ID, Ordinal: p.Ordinal, Text: p.Text})
	}

	writeJSON(w, http.StatusOK, resp)
}

// NextReview godoc
// @Summary Pop the next pending review entry
// @Description Takes one entry id off the review feed and returns the entry with its point text. 404 when the feed is empty or disabled.
// @Tags review
// @Produce json
// @Success 200 {object} reviewItemResp
// @Failure 404 {object} apiError
// @Router /review/next [get]
func (h *Handler) NextReview(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		writeErr(w, http.StatusNotFound, "review feed disabled")
		return
	}

	entryID, err := h.feed.Next(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrFeedEmpty) {
			writeErr(w, http.StatusNotFound, "no pending review entries")
			return
		}
		h.log.Error().Err(err).Msg("review feed pop failed")
		writeErr(w, http.StatusInternalServerError, "review feed unavailable")
		return
	}

	entry, pointText, err := h.jobSvc.GetReviewEntry(r.Context(), entryID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "review entry not found")
		return
	}

	writeJSON(w, http.StatusOK, reviewItemResp{
		EntryID:   entry.ID,
		TraceID:   entry.TraceID,
		PointID:   entry.PointID,
		PointText: pointText,
		Status:    entry.Status,
	})
}
