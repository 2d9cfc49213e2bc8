// Package urlresolve normalizes raw anchor hrefs into absolute URLs relative to the page
// they appear on. The output is used as the cache key for summaries, so the rules are
// deliberately simple string rules rather than full RFC 3986 reference resolution.
package urlresolve

import (
	"regexp"
	"strings"
)

var absolutePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Resolve returns the absolute form of href as seen from pageURL.
//
// Rules, in order:
//  1. href already starts with "scheme://": returned unchanged.
//  2. href starts with "//": the page scheme is prefixed.
//  3. href starts with "/": the page origin is prefixed.
//  4. otherwise href is appended to the page URL truncated after its last "/".
//
// An empty or whitespace-only href yields ("", false).
func Resolve(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	switch {
	case absolutePattern.MatchString(href):
		return href, true
	case strings.HasPrefix(href, "//"):
		return Scheme(pageURL) + ":" + href, true
	case strings.HasPrefix(href, "/"):
		return Origin(pageURL) + href, true
	default:
		return Directory(pageURL) + href, true
	}
}

// Scheme returns the scheme of pageURL without the trailing ":", defaulting to "https".
func Scheme(pageURL string) string {
	if idx := strings.Index(pageURL, "://"); idx > 0 {
		return pageURL[:idx]
	}
	return "https"
}

// Origin returns "scheme://host[:port]" for pageURL.
func Origin(pageURL string) string {
	idx := strings.Index(pageURL, "://")
	if idx < 0 {
		return ""
	}
	rest := pageURL[idx+3:]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return pageURL[:idx+3] + rest
}

// Directory returns pageURL with query and fragment removed, truncated after its last
// "/". A page URL with no path yields its origin followed by "/".
func Directory(pageURL string) string {
	base := pageURL
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	origin := Origin(base)
	if origin != "" && len(base) == len(origin) {
		return origin + "/"
	}
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		return base[:idx+1]
	}
	return ""
}
