// Package hovercard is the client runtime of the document summarizer. It attaches to
// document links in a page tree, drives the hover and focus state machine, renders the
// single summary tooltip, coordinates summary requests and announces changes to
// assistive technology.
//
// The page is a goquery document standing in for the host DOM; a Host supplies layout,
// focus and window events. All state changes run serialized, so event methods are
// safe to call from any goroutine.
package hovercard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/pagescan"
)

// Default timings and geometry.
const (
	DefaultHoverDelay     = 500 * time.Millisecond
	DefaultFocusDelay     = 0
	DefaultPointerLinger  = 200 * time.Millisecond
	DefaultBlurLinger     = 100 * time.Millisecond
	DefaultAnnounceDelay  = 100 * time.Millisecond
	DefaultRequestTimeout = 15 * time.Second
	DefaultMargin         = 10
	DefaultGap            = 8
)

// State is a document link's position in the hover/focus state machine.
type State int

const (
	StateIdle State = iota
	StatePendingShow
	StateVisible
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingShow:
		return "pending-show"
	case StateVisible:
		return "visible"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Options configures a Runtime.
type Options struct {
	PageURL    string
	Extensions *docmatch.Matcher

	HoverDelay     time.Duration
	FocusDelay     time.Duration
	PointerLinger  time.Duration
	BlurLinger     time.Duration
	AnnounceDelay  time.Duration
	RequestTimeout time.Duration
	Margin         float64
	Gap            float64

	Messages  Messages
	Scheduler Scheduler
	Logger    *slog.Logger

	// OnAnnounce, when set, receives each message as it reaches the live region.
	OnAnnounce func(message string)
}

// DefaultOptions returns the standard timings for pageURL.
func DefaultOptions(pageURL string) Options {
	return Options{
		PageURL:        pageURL,
		HoverDelay:     DefaultHoverDelay,
		FocusDelay:     DefaultFocusDelay,
		PointerLinger:  DefaultPointerLinger,
		BlurLinger:     DefaultBlurLinger,
		AnnounceDelay:  DefaultAnnounceDelay,
		RequestTimeout: DefaultRequestTimeout,
		Margin:         DefaultMargin,
		Gap:            DefaultGap,
		Messages:       DefaultMessages(),
	}
}

// linkState is the per-link record of the state machine.
type linkState struct {
	link    *pagescan.DocumentLink
	state   State
	hovered bool
	focused bool

	suppressFocus bool
}

// Runtime is one page's summarizer client.
type Runtime struct {
	opts      Options
	doc       *goquery.Document
	host      Host
	transport Transport
	sched     Scheduler
	logger    *slog.Logger
	scanner   *pagescan.Scanner

	ctx    context.Context
	cancel context.CancelFunc

	loop      loop
	links     map[*html.Node]*linkState
	cache     *SummaryCache
	requests  coordinator
	announcer announcer
	tip       *tooltip

	showTimer timerSlot
	showFor   *linkState
	hideTimer timerSlot
}

// New creates a Runtime over doc. Zero-valued timings fall back to the defaults, except
// FocusDelay and AnnounceDelay where zero means immediate.
func New(doc *goquery.Document, host Host, transport Transport, opts Options) (*Runtime, error) {
	if doc == nil {
		return nil, errors.New("hovercard: document is required")
	}
	if host == nil {
		return nil, errors.New("hovercard: host is required")
	}
	if transport == nil {
		return nil, errors.New("hovercard: transport is required")
	}

	d := DefaultOptions(opts.PageURL)
	if opts.HoverDelay <= 0 {
		opts.HoverDelay = d.HoverDelay
	}
	if opts.PointerLinger <= 0 {
		opts.PointerLinger = d.PointerLinger
	}
	if opts.BlurLinger <= 0 {
		opts.BlurLinger = d.BlurLinger
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = d.RequestTimeout
	}
	if opts.Margin <= 0 {
		opts.Margin = d.Margin
	}
	if opts.Gap <= 0 {
		opts.Gap = d.Gap
	}
	opts.Messages = opts.Messages.withDefaults()
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		opts:      opts,
		doc:       doc,
		host:      host,
		transport: transport,
		sched:     opts.Scheduler,
		logger:    opts.Logger.With("component", "hovercard"),
		scanner:   pagescan.NewScanner(opts.PageURL, opts.Extensions),
		ctx:       ctx,
		cancel:    cancel,
		links:     make(map[*html.Node]*linkState),
		cache:     NewSummaryCache(),
	}
	rt.requests = coordinator{rt: rt, active: make(map[string]*request)}
	rt.announcer = announcer{rt: rt}
	return rt, nil
}

// Attach scans root (the whole document when nil) and registers every new document
// link. Links attached earlier are skipped.
func (rt *Runtime) Attach(root *goquery.Selection) []*pagescan.DocumentLink {
	var found []*pagescan.DocumentLink
	rt.loop.do(func() {
		if root == nil {
			root = rt.doc.Selection
		}
		found = rt.scanner.Scan(root)
		for _, link := range found {
			rt.links[link.Node()] = &linkState{link: link}
		}
	})
	rt.logger.Debug("attached document links", "count", len(found))
	return found
}

// Teardown detaches every link below root (the whole document when nil), cancels all
// outstanding requests and destroys the tooltip.
func (rt *Runtime) Teardown(root *goquery.Selection) {
	var released, cancelled int
	rt.loop.do(func() {
		whole := root == nil
		if whole {
			root = rt.doc.Selection
		}

		processed := root.Find("[" + pagescan.MarkerAttr + "]").AddSelection(root.Filter("[" + pagescan.MarkerAttr + "]"))
		processed.Each(func(_ int, a *goquery.Selection) {
			delete(rt.links, a.Get(0))
		})

		rt.showTimer.stop()
		rt.showFor = nil
		rt.hideTimer.stop()
		rt.destroyTooltip()
		for _, ls := range rt.links {
			ls.state = StateIdle
		}
		cancelled = rt.requests.cancelAll()
		released = pagescan.Release(root)

		if whole {
			rt.announcer.close()
		}
	})
	rt.logger.Debug("teardown", "released", released, "cancelled_requests", cancelled)
}

// Close tears down the whole document and stops background work.
func (rt *Runtime) Close() {
	rt.Teardown(nil)
	rt.cancel()
}

// State returns the link's state; unknown nodes are Idle.
func (rt *Runtime) State(node *html.Node) State {
	state := StateIdle
	rt.loop.do(func() {
		if ls, ok := rt.links[node]; ok {
			state = ls.state
		}
	})
	return state
}

// Owner returns the link whose tooltip is shown, or nil.
func (rt *Runtime) Owner() *pagescan.DocumentLink {
	var owner *pagescan.DocumentLink
	rt.loop.do(func() {
		if rt.tip != nil {
			owner = rt.tip.owner.link
		}
	})
	return owner
}

// Tooltip returns the shown tooltip's record and placement.
func (rt *Runtime) Tooltip() (SummaryRecord, Placement, bool) {
	var (
		rec SummaryRecord
		p   Placement
		ok  bool
	)
	rt.loop.do(func() {
		if rt.tip != nil {
			rec, p, ok = rt.tip.record, rt.tip.placement, true
		}
	})
	return rec, p, ok
}

// TooltipNode returns the tooltip element, or nil.
func (rt *Runtime) TooltipNode() *html.Node {
	var node *html.Node
	rt.loop.do(func() {
		if rt.tip != nil {
			node = rt.tip.node
		}
	})
	return node
}

// HTML renders the page tree, including the tooltip and live region.
func (rt *Runtime) HTML() (string, error) {
	var (
		out string
		err error
	)
	rt.loop.do(func() {
		out, err = goquery.OuterHtml(rt.doc.Selection)
	})
	return out, err
}

// Query runs fn against the page tree with all state changes held off.
func (rt *Runtime) Query(fn func(doc *goquery.Document)) {
	rt.loop.do(func() { fn(rt.doc) })
}

// InFlight returns how many summary requests are outstanding.
func (rt *Runtime) InFlight() int {
	var n int
	rt.loop.do(func() { n = len(rt.requests.active) })
	return n
}

// LiveText returns what the live region currently reads.
func (rt *Runtime) LiveText() string {
	var text string
	rt.loop.do(func() { text = rt.announcer.text() })
	return text
}

// Cache returns the client-side summary cache.
func (rt *Runtime) Cache() *SummaryCache {
	return rt.cache
}
