package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// PageOCR recognizes the text on one rendered page image.
type PageOCR interface {
	Recognize(ctx context.Context, imagePath string) (PageText, error)
}

// PageText is the recognition result for a single page.
type PageText struct {
	Text       string
	Confidence float32 // 0..1
}

// tesseractOCR drives the Tesseract engine through gosseract. A fresh client
// per page keeps engine state isolated between pages.
type tesseractOCR struct {
	language string
}

func newTesseractOCR(language string) *tesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &tesseractOCR{language: language}
}

func (t *tesseractOCR) Recognize(ctx context.Context, imagePath string) (PageText, error) {
	if err := ctx.Err(); err != nil {
		return PageText{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return PageText{}, fmt.Errorf("set OCR language %q: %w", t.language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return PageText{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return PageText{}, fmt.Errorf("set OCR image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return PageText{}, fmt.Errorf("recognize %s: %w", imagePath, err)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	return PageText{Text: text, Confidence: meanWordConfidence(client)}, nil
}

// meanWordConfidence averages per-word confidences, scaled to 0..1.
// Tesseract reports them 0..100.
func meanWordConfidence(client *gosseract.Client) float32 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return float32(sum / float64(len(boxes)) / 100)
}
