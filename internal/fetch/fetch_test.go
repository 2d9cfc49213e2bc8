package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="a.pdf">A</a></body></html>`))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, `href="a.pdf"`)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/docs/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := URL(context.Background(), server.URL+"/old", nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/docs/new", result.FinalURL)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/x", "/relative/path"} {
		_, err := URL(context.Background(), raw, nil)
		require.Error(t, err, raw)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>saved</body></html>"), 0o644))

	result, err := File(path, "https://example.com/docs/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs/", result.FinalURL)
	assert.Contains(t, result.HTML, "saved")

	_, err = File(filepath.Join(t.TempDir(), "missing.html"), "")
	assert.Error(t, err)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/page"))
	assert.True(t, IsRemote("http://localhost:8080/"))
	assert.False(t, IsRemote("page.html"))
	assert.False(t, IsRemote("/tmp/page.html"))
	assert.False(t, IsRemote("file:///tmp/page.html"))
}

func TestNeedsRender(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		expected bool
	}{
		{"app shell", `<html><body><div id="root"></div><script>boot()</script></body></html>`, true},
		{"has anchors", `<html><body><a href="x.pdf">x</a></body></html>`, false},
		{"long article without links", "<html><body><p>" + strings.Repeat("words ", 200) + "</p></body></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NeedsRender(tt.page))
		})
	}
}
