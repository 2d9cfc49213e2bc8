package hovercard

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// announcer drives a polite live region. Each announcement clears the region first
// and sets the text after a short delay so repeated messages are re-read; a newer
// announcement cancels a pending one.
type announcer struct {
	rt      *Runtime
	region  *goquery.Selection
	pending timerSlot
	last    string
}

// announce queues message for assistive technology. Caller holds the loop lock.
func (a *announcer) announce(message string) {
	if message == "" {
		return
	}
	region := a.ensureRegion()
	region.SetText("")
	a.pending.stop()

	set := func() {
		if a.region == nil {
			return
		}
		a.region.SetText(message)
		a.last = message
		if a.rt.opts.OnAnnounce != nil {
			notify := a.rt.opts.OnAnnounce
			a.rt.loop.after(func() { notify(message) })
		}
	}
	if a.rt.opts.AnnounceDelay <= 0 {
		set()
		return
	}
	a.pending.start(&a.rt.loop, a.rt.sched, a.rt.opts.AnnounceDelay, set)
}

// ensureRegion creates the visually hidden live region on first use.
func (a *announcer) ensureRegion() *goquery.Selection {
	if a.region != nil {
		return a.region
	}
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: LiveRegionClass},
			{Key: "role", Val: "status"},
			{Key: "aria-live", Val: "polite"},
			{Key: "aria-atomic", Val: "true"},
		},
	}
	a.rt.container().AppendNodes(node)
	a.region = a.rt.doc.FindNodes(node)
	return a.region
}

// close removes the live region and drops any pending announcement.
func (a *announcer) close() {
	a.pending.stop()
	if a.region != nil {
		a.region.Remove()
		a.region = nil
	}
}

// text returns what the live region currently reads.
func (a *announcer) text() string {
	if a.region == nil {
		return ""
	}
	return a.region.Text()
}
