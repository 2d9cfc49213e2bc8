package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/document-summarizer/internal/pagescan"
	"github.com/jonathan/document-summarizer/internal/types"
)

func TestPrintLinks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	links := []*pagescan.DocumentLink{
		{URL: "https://example.com/files/report.pdf", DocType: "pdf", Filename: "report.pdf"},
		{URL: "https://example.com/notes.txt", DocType: "txt", Filename: "notes.txt"},
	}

	p.PrintLinks("https://example.com/", links)
	output := buf.String()

	assert.Contains(t, output, "DOCUMENT LINKS")
	assert.Contains(t, output, "Found: 2 document links")
	assert.Contains(t, output, "[PDF] report.pdf")
	assert.Contains(t, output, "https://example.com/notes.txt")
}

func TestPrintLinks_ManyLinks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var links []*pagescan.DocumentLink
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("doc%d.csv", i)
		links = append(links, &pagescan.DocumentLink{URL: "https://example.com/" + name, DocType: "csv", Filename: name})
	}

	p.PrintLinks("https://example.com/", links)
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	resp := types.SummarySucceeded("A quarterly report covering revenue, churn and the hiring plan for next year.", true)
	p.PrintSummary("https://example.com/q3.pdf", &resp)
	output := buf.String()

	assert.Contains(t, output, "DOCUMENT SUMMARY")
	assert.Contains(t, output, "Source:   cache")
	assert.Contains(t, output, "quarterly report")
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}

func TestPrintSummary_Failure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	resp := types.SummaryFailed("Unable to generate a summary for this document.")
	p.PrintSummary("https://example.com/q3.pdf", &resp)

	assert.Contains(t, buf.String(), "SUMMARY FAILED")
	assert.Contains(t, buf.String(), "Unable to generate a summary")
}

func TestPrintSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary("x", nil)
	assert.Empty(t, buf.String())
}

func TestPrintTranscript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTranscript(nil)
	assert.Empty(t, buf.String())

	p.PrintTranscript([]string{"t=0ms mouseenter pdf", "t=500ms request started"})
	assert.Contains(t, buf.String(), "HOVER SIMULATION")
	assert.Contains(t, buf.String(), "request started")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("Warning").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")
}
