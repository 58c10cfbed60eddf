// Package points parses structured list items out of recognized document
// text.
package points

import (
	"regexp"
	"strings"
)

// markerRe matches numbered lines ("12. text") and bulleted lines ("- text",
// "•text"). Numbered markers require trailing whitespace so decimals like
// "3.14" never match; bullet glyphs frequently abut the text in OCR output,
// so their whitespace is optional.
var markerRe = regexp.MustCompile(`^(\d+\.\s+|[-•]\s*)\S`)

// Extract returns the list-item lines of text, trimmed, in source order.
// Blank lines and non-matching lines are dropped. Pure and deterministic.
func Extract(text string) []string {
	var pts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if markerRe.MatchString(line) {
			pts = append(pts, line)
		}
	}
	return pts
}
