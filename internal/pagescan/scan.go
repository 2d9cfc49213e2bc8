// Package pagescan discovers document links in a rendered page and applies the markup
// contract (marker attribute, styling class, ARIA wiring) that makes them hover targets.
package pagescan

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/urlresolve"
)

// Markup contract attribute and class names.
const (
	OptOutAttr      = "data-no-summarizer"
	MarkerAttr      = "data-summarizer-processed"
	DocTypeAttr     = "data-doc-type"
	DescribedByAttr = "aria-describedby"
	LinkClass       = "doc-summarizer-link"
)

// DocumentLink is an anchor whose resolved URL has a supported extension.
type DocumentLink struct {
	Anchor   *goquery.Selection
	URL      string
	DocType  string
	Filename string
	Text     string
}

// Node returns the underlying anchor node, which identifies the link.
func (l *DocumentLink) Node() *html.Node {
	return l.Anchor.Get(0)
}

// Scanner finds document links below a root selection.
type Scanner struct {
	PageURL string
	Matcher *docmatch.Matcher
}

// NewScanner creates a Scanner for a page. A nil matcher uses the default extensions.
func NewScanner(pageURL string, matcher *docmatch.Matcher) *Scanner {
	if matcher == nil {
		matcher = docmatch.New()
	}
	return &Scanner{PageURL: pageURL, Matcher: matcher}
}

// Scan marks and returns every unprocessed, non-opted-out anchor below root whose
// resolved URL is a supported document. Anchors already carrying the marker are skipped,
// so scanning the same subtree twice attaches nothing new.
func (s *Scanner) Scan(root *goquery.Selection) []*DocumentLink {
	var links []*DocumentLink

	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if strings.EqualFold(strings.TrimSpace(a.AttrOr(OptOutAttr, "")), "true") {
			return
		}
		if _, processed := a.Attr(MarkerAttr); processed {
			return
		}

		resolved, ok := urlresolve.Resolve(s.PageURL, a.AttrOr("href", ""))
		if !ok {
			return
		}
		ext, supported := s.Matcher.Match(resolved)
		if !supported {
			return
		}

		markProcessed(a, ext)
		links = append(links, &DocumentLink{
			Anchor:   a,
			URL:      resolved,
			DocType:  ext,
			Filename: docmatch.Filename(resolved),
			Text:     strings.Join(strings.Fields(a.Text()), " "),
		})
	})

	return links
}

// Release clears the markup contract from every processed anchor below root (and root
// itself) and returns how many anchors were released.
func Release(root *goquery.Selection) int {
	processed := root.Find("[" + MarkerAttr + "]").AddSelection(root.Filter("[" + MarkerAttr + "]"))
	processed.Each(func(_ int, a *goquery.Selection) {
		a.RemoveAttr(MarkerAttr)
		a.RemoveAttr(DocTypeAttr)
		a.RemoveAttr(DescribedByAttr)
		if a.AttrOr("role", "") == "button" {
			a.RemoveAttr("role")
		}
		if a.AttrOr("tabindex", "") == "0" {
			a.RemoveAttr("tabindex")
		}
		a.RemoveClass(LinkClass)
		if class, ok := a.Attr("class"); ok && strings.TrimSpace(class) == "" {
			a.RemoveAttr("class")
		}
	})
	return processed.Length()
}

func markProcessed(a *goquery.Selection, ext string) {
	a.SetAttr(MarkerAttr, "true")
	a.SetAttr(DocTypeAttr, ext)
	a.AddClass(LinkClass)
	if _, ok := a.Attr("role"); !ok {
		a.SetAttr("role", "button")
	}
	if _, ok := a.Attr("tabindex"); !ok {
		a.SetAttr("tabindex", "0")
	}
}

// Parse reads an HTML page into a goquery document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// Decorate scans a full HTML page and returns the rewritten markup with the links found.
func Decorate(pageURL, page string, matcher *docmatch.Matcher) (string, []*DocumentLink, error) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		return "", nil, err
	}

	links := NewScanner(pageURL, matcher).Scan(doc.Selection)

	out, err := doc.Html()
	if err != nil {
		return "", nil, fmt.Errorf("failed to render page: %w", err)
	}
	return out, links, nil
}
