package docmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_SupportedExtensions(t *testing.T) {
	m := New()

	for _, ext := range DefaultExtensions {
		for _, suffix := range []string{"", "?download=1", "#page=2", "?a=b#frag"} {
			url := "https://example.com/files/doc." + ext + suffix
			got, ok := m.Match(url)
			assert.True(t, ok, "expected %s to match", url)
			assert.Equal(t, ext, got)
		}
	}
}

func TestMatch_Unsupported(t *testing.T) {
	m := New()

	tests := []struct {
		name string
		url  string
		ext  string
	}{
		{"double extension", "https://example.com/archive.tar.gz", "gz"},
		{"no extension", "https://example.com/about", ""},
		{"dot only in host", "https://example.com/", ""},
		{"dot in directory", "https://example.com/v1.2/readme", ""},
		{"docx", "https://example.com/letter.docx", "docx"},
		{"extension in query only", "https://example.com/view?file=report.pdf", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := m.Match(tt.url)
			assert.False(t, ok)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestMatch_CaseInsensitiveWithQuery(t *testing.T) {
	m := New()

	ext, ok := m.Match("notes.TXT?download=1")
	assert.True(t, ok)
	assert.Equal(t, "txt", ext)
}

func TestMatch_ConfiguredExtension(t *testing.T) {
	m := ParseList("gz, PDF , .Docx,,")

	ext, ok := m.Match("https://example.com/archive.tar.gz")
	assert.True(t, ok)
	assert.Equal(t, "gz", ext)

	assert.True(t, m.Supports("docx"))
	assert.True(t, m.Supports("PDF"))
	assert.False(t, m.Supports("txt"))
	assert.Equal(t, []string{"docx", "gz", "pdf"}, m.Extensions())
}

func TestParseList_EmptyFallsBackToDefaults(t *testing.T) {
	m := ParseList(" , ")
	assert.Equal(t, []string{"csv", "html", "pdf", "txt"}, m.Extensions())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", Filename("https://example.com/docs/report.pdf?x=1#y"))
	assert.Equal(t, "annual report.pdf", Filename("https://example.com/annual%20report.pdf"))
	assert.Equal(t, "notes.TXT", Filename("notes.TXT?download=1"))
	assert.Equal(t, "", Filename("https://example.com/"))
	assert.Equal(t, "", Filename("https://example.com"))
}

func TestExtension_IgnoresHost(t *testing.T) {
	m := New(DefaultExtensions...)
	for _, raw := range []string{
		"https://docs.example.html",
		"https://docs.example.html?file=a.pdf",
		"//cdn.example.pdf",
		"http://files.example.txt#x.csv",
	} {
		ext, ok := m.Match(raw)
		assert.Empty(t, ext, raw)
		assert.False(t, ok, raw)
	}
	assert.Equal(t, "pdf", Extension("https://docs.example.html/a/report.pdf"))
	assert.Equal(t, "pdf", Extension("//cdn.example.com/report.PDF"))
}
