// Package extract turns a PDF into text, preferring the selectable text
// layer and falling back to rasterize+OCR when the layer is missing or
// too thin to be authoritative.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

// Result is the outcome of one extraction run.
type Result struct {
	Text       string
	Pages      int
	Method     string
	Confidence float32
	Warnings   []string
}

// ExtractionError reports a failed rasterization or recognition run.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	Language string // tesseract language code, default "eng"
	DPI      int    // rasterization DPI, default 300
	MaxPages int    // 0 = no limit

	// MinSelectableLen is the text-layer length above which the fast path
	// wins and OCR is skipped entirely.
	MinSelectableLen int
}

type Extractor struct {
	cfg    Config
	runner Runner
	ocr    PageOCR
	textFn func(path string, maxPages int) (string, int, error)
	log    zerolog.Logger
}

func NewExtractor(cfg Config, log zerolog.Logger) *Extractor {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinSelectableLen <= 0 {
		cfg.MinSelectableLen = 50
	}
	return &Extractor{
		cfg:    cfg,
		runner: execRunner{},
		ocr:    newTesseractOCR(cfg.Language),
		textFn: readTextLayer,
		log:    log,
	}
}

// Extract runs the two-path strategy. The decision between paths is purely
// the length of the extracted text layer: above MinSelectableLen the layer
// is authoritative, otherwise every page is rendered and recognized.
func (e *Extractor) Extract(ctx context.Context, pdfPath, workDir string) (Result, error) {
	text, pages, err := e.textFn(pdfPath, e.cfg.MaxPages)
	if err != nil {
		e.log.Warn().Err(err).Str("path", pdfPath).Msg("text layer unreadable, falling back to OCR")
	} else if len(text) > e.cfg.MinSelectableLen {
		e.log.Debug().Int("chars", len(text)).Int("pages", pages).Msg("using selectable text layer")
		return Result{Text: text, Pages: pages, Method: MethodPDFText, Confidence: 1.0}, nil
	}
	return e.ocrPages(ctx, pdfPath, workDir)
}

func (e *Extractor) ocrPages(ctx context.Context, pdfPath, workDir string) (Result, error) {
	images, err := rasterize(ctx, e.runner, e.cfg.Pdftoppm, pdfPath, workDir, e.cfg.DPI)
	if err != nil {
		return Result{}, &ExtractionError{Stage: "rasterize", Err: err}
	}
	if len(images) == 0 {
		return Result{}, &ExtractionError{Stage: "rasterize", Err: errors.New("no pages rendered")}
	}
	if e.cfg.MaxPages > 0 && len(images) > e.cfg.MaxPages {
		images = images[:e.cfg.MaxPages]
	}

	var (
		pageTexts []string
		warnings  []string
		confSum   float32
		okPages   int
	)
	for _, img := range images {
		page, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			// Best effort: one bad page must not drop the others.
			e.log.Warn().Err(err).Str("image", img).Msg("page OCR failed")
			warnings = append(warnings, fmt.Sprintf("%s: %v", filepath.Base(img), err))
			continue
		}
		pageTexts = append(pageTexts, page.Text)
		confSum += page.Confidence
		okPages++
	}
	if okPages == 0 {
		return Result{}, &ExtractionError{Stage: "ocr", Err: errors.New("no page recognized")}
	}

	return Result{
		Text:       strings.TrimSpace(strings.Join(pageTexts, "\n\n")),
		Pages:      len(images),
		Method:     MethodPDFOCR,
		Confidence: confSum / float32(okPages),
		Warnings:   warnings,
	}, nil
}
