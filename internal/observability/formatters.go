// Package observability provides the structured logger setup and the formatted
// output used by the CLI in verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/document-summarizer/internal/pagescan"
	"github.com/jonathan/document-summarizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintLinks outputs the document links found on a page.
func (p *Printer) PrintLinks(pageURL string, links []*pagescan.DocumentLink) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Page:  %s\n", pageURL))
	sb.WriteString(fmt.Sprintf("Found: %d document links\n", len(links)))

	if len(links) > 0 {
		sb.WriteString("\n")
	}
	count := min(len(links), maxItemsToShow)
	for i := 0; i < count; i++ {
		link := links[i]
		sb.WriteString(fmt.Sprintf("• [%s] %s\n", strings.ToUpper(link.DocType), link.Filename))
		sb.WriteString(fmt.Sprintf("  %s\n", link.URL))
	}
	if len(links) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(links)-maxItemsToShow))
	}

	p.printBox("DOCUMENT LINKS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs a summary envelope for a document.
func (p *Printer) PrintSummary(docURL string, resp *types.SummaryResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %s\n", docURL))
	if !resp.Success {
		sb.WriteString(fmt.Sprintf("⚠ %s", resp.Error))
		p.printBox("SUMMARY FAILED", sb.String())
		return
	}

	if resp.Cached {
		sb.WriteString("Source:   cache\n")
	}
	sb.WriteString("\n")
	sb.WriteString(wrap(resp.Summary, boxWidth-4))

	p.printBox("DOCUMENT SUMMARY", sb.String())
}

// PrintTranscript outputs the event transcript of a hover simulation.
func (p *Printer) PrintTranscript(lines []string) {
	if len(lines) == 0 {
		return
	}
	p.printBox("HOVER SIMULATION", strings.Join(lines, "\n"))
}

// wrap breaks text on spaces so no line exceeds width runes.
func wrap(text string, width int) string {
	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(line) > 0 && len(line)+1+len(w) > width {
			lines = append(lines, string(line))
			line = line[:0]
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return strings.Join(lines, "\n")
}
