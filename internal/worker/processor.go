package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ocr-service/internal/entity"
	"pdf-ocr-service/internal/extract"
	"pdf-ocr-service/internal/points"
)

// ErrUnsupportedFormat rejects non-PDF sources before any fetch happens.
var ErrUnsupportedFormat = errors.New("unsupported format: only .pdf sources are accepted")

// PersistenceError marks a failed job-store write. The job must never reach
// done when this is returned; it stays retryable.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist result: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ResultStore persists a finished job's output.
type ResultStore interface {
	SaveResult(ctx context.Context, jobID uuid.UUID, ex *entity.Extraction, pts []entity.Point) ([]int64, error)
	LogStage(ctx context.Context, jobID uuid.UUID, stage, message string) error
}

// Fetcher resolves a job source into a local file under destDir.
type Fetcher interface {
	Fetch(ctx context.Context, source, destDir string) (string, error)
}

// TextSource extracts the document text (fast path or OCR fallback).
type TextSource interface {
	Extract(ctx context.Context, pdfPath, workDir string) (extract.Result, error)
}

// Feed receives review entry ids after they are committed.
type Feed interface {
	Push(ctx context.Context, entryIDs []int64) error
}

// Processor runs the per-job pipeline: validate, fetch, extract, parse
// points, persist, notify. Every step's failure aborts the job and is
// routed to the loop's retry policy by the caller.
type Processor struct {
	store       ResultStore
	fetcher     Fetcher
	extractor   TextSource
	feed        Feed // nil disables the review feed
	scratchRoot string
	log         zerolog.Logger
}

func NewProcessor(store ResultStore, fetcher Fetcher, extractor TextSource, feed Feed, scratchRoot string, log zerolog.Logger) *Processor {
	return &Processor{
		store:       store,
		fetcher:     fetcher,
		extractor:   extractor,
		feed:        feed,
		scratchRoot: scratchRoot,
		log:         log,
	}
}

func (p *Processor) Process(ctx context.Context, job *entity.Job) error {
	if !strings.HasSuffix(strings.ToLower(job.ObjectURL), ".pdf") {
		return ErrUnsupportedFormat
	}

	// Scratch space is namespaced per job and removed on every exit path.
	workDir := filepath.Join(p.scratchRoot, job.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfPath, err := p.fetcher.Fetch(ctx, job.ObjectURL, workDir)
	if err != nil {
		return err
	}

	res, err := p.extractor.Extract(ctx, pdfPath, workDir)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		p.log.Warn().Str("trace_id", job.TraceID).Str("warning", w).Msg("extraction warning")
	}

	pts := points.Extract(res.Text)
	entPoints := make([]entity.Point, 0, len(pts))
	for i, txt := range pts {
		entPoints = append(entPoints, entity.Point{TraceID: job.TraceID, Text: txt, Ordinal: i + 1})
	}

	payload, err := json.Marshal(map[string][]string{"points": pts})
	if err != nil {
		return fmt.Errorf("encode points payload: %w", err)
	}
	ex := &entity.Extraction{
		TraceID:    job.TraceID,
		RawText:    res.Text,
		Points:     payload,
		Confidence: res.Confidence,
		Method:     res.Method,
		Pages:      res.Pages,
	}

	entryIDs, err := p.store.SaveResult(ctx, job.ID, ex, entPoints)
	if err != nil {
		return &PersistenceError{Err: err}
	}

	if err := p.store.LogStage(ctx, job.ID, "extract", "ok"); err != nil {
		p.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("processing log write failed")
	}

	// The feed is notification only; the committed rows are the truth.
	if p.feed != nil && len(entryIDs) > 0 {
		if err := p.feed.Push(ctx, entryIDs); err != nil {
			p.log.Warn().Err(err).Str("trace_id", job.TraceID).Msg("review feed push failed")
		}
	}

	p.log.Info().
		Str("trace_id", job.TraceID).
		Str("method", res.Method).
		Int("pages", res.Pages).
		Int("points", len(pts)).
		Float32("confidence", res.Confidence).
		Msg("job processed")
	return nil
}
