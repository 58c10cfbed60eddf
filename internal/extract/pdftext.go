package extract

import (
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// readTextLayer extracts the selectable text embedded in a PDF, page texts
// joined by a blank line, trimmed. Pages without a readable text object are
// skipped; the PDF being unparseable at all is an error.
func readTextLayer(path string, maxPages int) (string, int, error) {
	f, doc, err := pdflib.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	total := doc.NumPage()
	var b strings.Builder
	for i := 1; i <= total; i++ {
		if maxPages > 0 && i > maxPages {
			break
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(txt)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), total, nil
}
