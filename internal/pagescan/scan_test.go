package pagescan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/document-summarizer/internal/docmatch"
)

const testPage = `<html><body>
<main>
  <a id="pdf" href="/files/report.pdf">Quarterly report</a>
  <a id="txt" href="notes.TXT?download=1">notes.TXT</a>
  <a id="opt" href="/files/secret.pdf" data-no-summarizer="true">Secret</a>
  <a id="img" href="/files/photo.jpg">Photo</a>
  <a id="gz" href="https://cdn.example.com/archive.tar.gz">Archive</a>
  <a id="empty" href="">Nothing</a>
  <a id="styled" class="button" role="link" href="//cdn.example.com/data.csv">Data</a>
</main>
</body></html>`

func TestScan_FindsSupportedLinks(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)

	links := NewScanner("https://example.com/news/index.html", nil).Scan(doc.Selection)
	require.Len(t, links, 3)

	assert.Equal(t, "https://example.com/files/report.pdf", links[0].URL)
	assert.Equal(t, "pdf", links[0].DocType)
	assert.Equal(t, "report.pdf", links[0].Filename)
	assert.Equal(t, "Quarterly report", links[0].Text)

	assert.Equal(t, "https://example.com/news/notes.TXT?download=1", links[1].URL)
	assert.Equal(t, "txt", links[1].DocType)

	assert.Equal(t, "https://cdn.example.com/data.csv", links[2].URL)
	assert.Equal(t, "csv", links[2].DocType)
}

func TestScan_AppliesMarkupContract(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)
	NewScanner("https://example.com/news/index.html", nil).Scan(doc.Selection)

	pdf := doc.Find("#pdf")
	assert.Equal(t, "true", pdf.AttrOr(MarkerAttr, ""))
	assert.Equal(t, "pdf", pdf.AttrOr(DocTypeAttr, ""))
	assert.Equal(t, "button", pdf.AttrOr("role", ""))
	assert.Equal(t, "0", pdf.AttrOr("tabindex", ""))
	assert.True(t, pdf.HasClass(LinkClass))

	styled := doc.Find("#styled")
	assert.Equal(t, "link", styled.AttrOr("role", ""), "existing role is preserved")
	assert.True(t, styled.HasClass("button"))
	assert.True(t, styled.HasClass(LinkClass))
}

func TestScan_OptedOutLinkUntouched(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)
	NewScanner("https://example.com/", nil).Scan(doc.Selection)

	opt := doc.Find("#opt")
	_, marked := opt.Attr(MarkerAttr)
	assert.False(t, marked)
	assert.False(t, opt.HasClass(LinkClass))
	_, hasRole := opt.Attr("role")
	assert.False(t, hasRole)
}

func TestScan_Idempotent(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)
	scanner := NewScanner("https://example.com/", nil)

	assert.Len(t, scanner.Scan(doc.Selection), 3)
	assert.Empty(t, scanner.Scan(doc.Selection))
}

func TestScan_ConfiguredExtensions(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)

	links := NewScanner("https://example.com/", docmatch.ParseList("gz")).Scan(doc.Selection)
	require.Len(t, links, 1)
	assert.Equal(t, "gz", links[0].DocType)
}

func TestRelease_AllowsRescan(t *testing.T) {
	doc, err := Parse(strings.NewReader(testPage))
	require.NoError(t, err)
	scanner := NewScanner("https://example.com/", nil)
	scanner.Scan(doc.Selection)

	doc.Find("#pdf").SetAttr(DescribedByAttr, "doc-summarizer-tooltip-1")

	assert.Equal(t, 3, Release(doc.Find("main")))
	pdf := doc.Find("#pdf")
	_, marked := pdf.Attr(MarkerAttr)
	assert.False(t, marked)
	_, described := pdf.Attr(DescribedByAttr)
	assert.False(t, described)
	_, hasClass := pdf.Attr("class")
	assert.False(t, hasClass)

	assert.Len(t, scanner.Scan(doc.Selection), 3)
}

func TestDecorate(t *testing.T) {
	out, links, err := Decorate("https://example.com/", testPage, nil)
	require.NoError(t, err)
	assert.Len(t, links, 3)
	assert.Contains(t, out, `data-summarizer-processed="true"`)
	assert.Contains(t, out, `data-no-summarizer="true"`)
}
