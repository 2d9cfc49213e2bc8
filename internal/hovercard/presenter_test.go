package hovercard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace(t *testing.T) {
	viewport := Size{Width: 800, Height: 600}
	tip := Size{Width: 200, Height: 100}

	tests := []struct {
		name     string
		trigger  Rect
		expected Placement
	}{
		{
			name:     "centered above",
			trigger:  Rect{Left: 300, Top: 300, Width: 100, Height: 20},
			expected: Placement{Left: 250, Top: 192},
		},
		{
			name:     "clamped to left margin",
			trigger:  Rect{Left: 0, Top: 300, Width: 40, Height: 20},
			expected: Placement{Left: 10, Top: 192},
		},
		{
			name:     "clamped to right margin",
			trigger:  Rect{Left: 760, Top: 300, Width: 40, Height: 20},
			expected: Placement{Left: 590, Top: 192},
		},
		{
			name:     "flipped below near the top",
			trigger:  Rect{Left: 300, Top: 50, Width: 100, Height: 20},
			expected: Placement{Left: 250, Top: 78, Below: true},
		},
		{
			name:     "exactly fits above",
			trigger:  Rect{Left: 300, Top: 118, Width: 100, Height: 20},
			expected: Placement{Left: 250, Top: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := place(tt.trigger, tip, viewport, DefaultMargin, DefaultGap)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPlace_TooltipWiderThanViewport(t *testing.T) {
	got := place(Rect{Left: 100, Top: 300, Width: 50, Height: 20}, Size{Width: 500, Height: 50}, Size{Width: 320, Height: 480}, DefaultMargin, DefaultGap)
	assert.Equal(t, float64(DefaultMargin), got.Left)
}

func TestHeaderTitle(t *testing.T) {
	tests := []struct {
		text     string
		filename string
		expected string
	}{
		{"Quarterly report", "report.pdf", "Quarterly report"},
		{"report.pdf", "report.pdf", ""},
		{"  REPORT.PDF ", "report.pdf", ""},
		{"report", "report.pdf", ""},
		{"", "report.pdf", ""},
		{"Annual\n  summary", "summary.pdf", "Annual summary"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, headerTitle(tt.text, tt.filename))
		})
	}
}

func TestRenderBody(t *testing.T) {
	msgs := DefaultMessages()

	t.Run("loading", func(t *testing.T) {
		out, err := renderBody(loadingRecord("a.pdf", "pdf"), "Annual report", msgs)
		require.NoError(t, err)
		assert.Contains(t, out, LoadingClass)
		assert.Contains(t, out, SpinnerClass)
		assert.Contains(t, out, msgs.Loading)
		assert.Contains(t, out, `<span class="doc-summarizer-title">Annual report</span>`)
		assert.NotContains(t, out, SummaryClass)
	})

	t.Run("error", func(t *testing.T) {
		out, err := renderBody(SummaryRecord{Filename: "a.pdf", Error: "boom"}, "a.pdf", msgs)
		require.NoError(t, err)
		assert.Contains(t, out, ErrorClass)
		assert.Contains(t, out, ErrorIconClass)
		assert.Contains(t, out, "boom")
		assert.NotContains(t, out, TitleClass, "title equal to filename is omitted")
	})

	t.Run("summary escapes markup", func(t *testing.T) {
		rec := SummaryRecord{Filename: "a.pdf", Summary: `<script>alert("x")</script>`, Cached: true}
		out, err := renderBody(rec, "", msgs)
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "&lt;script&gt;")
		assert.Contains(t, out, CachedClass)
		assert.Equal(t, 1, strings.Count(out, FilenameClass))
	})
}
