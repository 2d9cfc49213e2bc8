package hovercard

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"strings"
)

// Tooltip class names shared with the stylesheet.
const (
	TooltipClass      = "doc-summarizer-tooltip"
	TooltipBelowClass = "doc-summarizer-tooltip--below"
	HeaderClass       = "doc-summarizer-header"
	TitleClass        = "doc-summarizer-title"
	FilenameClass     = "doc-summarizer-filename"
	ContentClass      = "doc-summarizer-content"
	LoadingClass      = "doc-summarizer-loading"
	SpinnerClass      = "doc-summarizer-spinner"
	ErrorClass        = "doc-summarizer-error"
	ErrorIconClass    = "doc-summarizer-error-icon"
	SummaryClass      = "doc-summarizer-summary"
	CachedClass       = "doc-summarizer-cached"
	LiveRegionClass   = "doc-summarizer-live-region"
)

var bodyTemplate = template.Must(template.New("tooltip").Parse(
	`<div class="doc-summarizer-header">` +
		`{{if .Title}}<span class="doc-summarizer-title">{{.Title}}</span>{{end}}` +
		`<span class="doc-summarizer-filename">{{.Filename}}</span>` +
		`</div>` +
		`<div class="doc-summarizer-content">` +
		`{{if .Loading}}` +
		`<div class="doc-summarizer-loading"><span class="doc-summarizer-spinner" aria-hidden="true"></span><span>{{.LoadingLabel}}</span></div>` +
		`{{else if .Error}}` +
		`<div class="doc-summarizer-error" role="alert"><span class="doc-summarizer-error-icon" aria-hidden="true">!</span><span>{{.Error}}</span></div>` +
		`{{else}}` +
		`<p class="doc-summarizer-summary">{{.Summary}}</p>` +
		`{{if .Cached}}<span class="doc-summarizer-cached">{{.CachedLabel}}</span>{{end}}` +
		`{{end}}` +
		`</div>`))

type bodyView struct {
	Title        string
	Filename     string
	Loading      bool
	LoadingLabel string
	Error        string
	Summary      string
	Cached       bool
	CachedLabel  string
}

// renderBody returns the escaped inner markup of a tooltip.
func renderBody(rec SummaryRecord, linkText string, msgs Messages) (string, error) {
	view := bodyView{
		Title:        headerTitle(linkText, rec.Filename),
		Filename:     rec.Filename,
		Loading:      rec.Loading,
		LoadingLabel: msgs.Loading,
		Error:        rec.Error,
		Summary:      rec.Summary,
		Cached:       rec.Cached,
		CachedLabel:  msgs.CachedBadge,
	}
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render tooltip: %w", err)
	}
	return buf.String(), nil
}

// headerTitle returns the link text when it says more than the filename does, and ""
// otherwise.
func headerTitle(linkText, filename string) string {
	text := strings.Join(strings.Fields(linkText), " ")
	if text == "" {
		return ""
	}
	norm := strings.ToLower(text)
	name := strings.ToLower(filename)
	if norm == name || norm == strings.TrimSuffix(name, path.Ext(name)) {
		return ""
	}
	return text
}
