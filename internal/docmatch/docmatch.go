// Package docmatch classifies document URLs by file extension against a configured allow-list.
package docmatch

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = []string{"pdf", "txt", "csv", "html"}

// Matcher holds a normalized set of supported extensions.
type Matcher struct {
	exts map[string]struct{}
}

// New creates a Matcher for the given extensions. Entries are trimmed, lowercased and
// stripped of a leading dot; empty entries are ignored. With no usable entries the
// DefaultExtensions are used.
func New(exts ...string) *Matcher {
	m := &Matcher{exts: make(map[string]struct{})}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			m.exts[ext] = struct{}{}
		}
	}
	if len(m.exts) == 0 {
		for _, ext := range DefaultExtensions {
			m.exts[ext] = struct{}{}
		}
	}
	return m
}

// ParseList builds a Matcher from a comma-separated list such as "pdf, txt, csv".
func ParseList(list string) *Matcher {
	return New(strings.Split(list, ",")...)
}

// Extensions returns the supported extensions in sorted order.
func (m *Matcher) Extensions() []string {
	out := make([]string, 0, len(m.exts))
	for ext := range m.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether ext (any case) is in the allow-list.
func (m *Matcher) Supports(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := m.exts[strings.ToLower(ext)]
	return ok
}

// Match returns the lowercased extension of rawURL and whether it is supported.
func (m *Matcher) Match(rawURL string) (string, bool) {
	ext := Extension(rawURL)
	return ext, m.Supports(ext)
}

// Extension returns the lowercased substring after the last "." of the final path
// segment, ignoring any query string or fragment. It returns "" when there is no dot.
func Extension(rawURL string) string {
	segment := lastSegment(stripSuffixes(rawURL))
	idx := strings.LastIndex(segment, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(segment[idx+1:])
}

// Filename returns the unescaped final path segment of rawURL for display.
func Filename(rawURL string) string {
	segment := lastSegment(stripSuffixes(rawURL))
	if unescaped, err := url.PathUnescape(segment); err == nil {
		return unescaped
	}
	return segment
}

// stripSuffixes reduces rawURL to its path: query, fragment and any scheme://host
// prefix are dropped, so a bare host never reads as a file name.
func stripSuffixes(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	authority := -1
	if strings.HasPrefix(rawURL, "//") {
		authority = 2
	} else if idx := strings.Index(rawURL, "://"); idx >= 0 {
		authority = idx + 3
	}
	if authority >= 0 {
		rest := rawURL[authority:]
		idx := strings.Index(rest, "/")
		if idx < 0 {
			return ""
		}
		return rest[idx:]
	}
	return rawURL
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
