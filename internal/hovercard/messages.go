package hovercard

import "strings"

// Messages holds every user-visible and announced string. Templates may contain
// {filename}, replaced with the document's filename.
type Messages struct {
	Loading         string
	CachedBadge     string
	LoadFailed      string
	TimedOut        string
	InvalidResponse string
	GenericFailure  string

	AnnounceOpened   string
	AnnounceClosed   string
	AnnounceLoaded   string
	AnnounceFailed   string
	AnnounceTimedOut string
}

// DefaultMessages returns the English message set.
func DefaultMessages() Messages {
	return Messages{
		Loading:         "Loading summary...",
		CachedBadge:     "Cached",
		LoadFailed:      "Failed to load summary",
		TimedOut:        "Request timed out. Please try again.",
		InvalidResponse: "Invalid response from server",
		GenericFailure:  "Unable to generate summary",

		AnnounceOpened:   "Document summary for {filename} opened",
		AnnounceClosed:   "Document summary closed",
		AnnounceLoaded:   "Summary loaded for {filename}",
		AnnounceFailed:   "Summary failed to load for {filename}",
		AnnounceTimedOut: "Summary request timed out for {filename}",
	}
}

// withDefaults fills empty fields from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Loading, d.Loading)
	fill(&m.CachedBadge, d.CachedBadge)
	fill(&m.LoadFailed, d.LoadFailed)
	fill(&m.TimedOut, d.TimedOut)
	fill(&m.InvalidResponse, d.InvalidResponse)
	fill(&m.GenericFailure, d.GenericFailure)
	fill(&m.AnnounceOpened, d.AnnounceOpened)
	fill(&m.AnnounceClosed, d.AnnounceClosed)
	fill(&m.AnnounceLoaded, d.AnnounceLoaded)
	fill(&m.AnnounceFailed, d.AnnounceFailed)
	fill(&m.AnnounceTimedOut, d.AnnounceTimedOut)
	return m
}

// format substitutes the filename into a message template.
func format(template, filename string) string {
	return strings.ReplaceAll(template, "{filename}", filename)
}
