package points_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdf-ocr-service/internal/points"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed markers with prose",
			text: "Intro\n1. First\n- Second\n•Third\nNotes",
			want: []string{"1. First", "- Second", "•Third"},
		},
		{
			name: "numbered lines",
			text: "1. one\n2. two\n10. ten",
			want: []string{"1. one", "2. two", "10. ten"},
		},
		{
			name: "numbered marker needs whitespace",
			text: "3.14 is pi\n1.First\n1. First",
			want: []string{"1. First"},
		},
		{
			name: "surrounding whitespace trimmed",
			text: "   - padded   \n\t• tabbed\t",
			want: []string{"- padded", "• tabbed"},
		},
		{
			name: "blank and plain lines dropped",
			text: "\n\nplain text\n\n   \n",
			want: nil,
		},
		{
			name: "bare marker without content dropped",
			text: "-\n•\n1.",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, points.Extract(tt.text))
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "header\n1. alpha\n- beta\n• gamma\nfooter"
	first := points.Extract(text)
	second := points.Extract(text)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1. alpha", "- beta", "• gamma"}, first)
}
