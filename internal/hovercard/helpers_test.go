package hovercard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/jonathan/document-summarizer/internal/types"
)

const testPageURL = "https://intranet.example.com/handbook/index.html"

const testPage = `<html><body>
<p><a id="report" href="/files/report.pdf">Quarterly report</a></p>
<p><a id="notes" href="notes.txt">notes.txt</a></p>
<p><a id="report-again" href="https://intranet.example.com/files/report.pdf">Report</a></p>
<p><a id="optout" href="/files/skip.pdf" data-no-summarizer="true">Skip me</a></p>
<p><a id="photo" href="/img/photo.png">Photo</a></p>
</body></html>`

// fakeTransport answers Fetch with respond, recording every call.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	respond func(ctx context.Context, docURL string) (*types.SummaryResponse, error)
}

func (f *fakeTransport) Fetch(ctx context.Context, docURL string) (*types.SummaryResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, docURL)
	respond := f.respond
	f.mu.Unlock()
	return respond(ctx, docURL)
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func succeed(summary string, cached bool) func(context.Context, string) (*types.SummaryResponse, error) {
	return func(context.Context, string) (*types.SummaryResponse, error) {
		resp := types.SummarySucceeded(summary, cached)
		return &resp, nil
	}
}

// blockUntil holds every fetch until release is closed or the request is cancelled.
func blockUntil(release <-chan struct{}, summary string) func(context.Context, string) (*types.SummaryResponse, error) {
	return func(ctx context.Context, _ string) (*types.SummaryResponse, error) {
		select {
		case <-release:
			resp := types.SummarySucceeded(summary, false)
			return &resp, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type fixture struct {
	t         *testing.T
	doc       *goquery.Document
	rt        *Runtime
	clock     *ManualClock
	host      *StaticHost
	transport *fakeTransport
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, transport *fakeTransport, mutate ...func(*Options)) *fixture {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	require.NoError(t, err)

	clock := NewManualClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	host := NewStaticHost(Size{Width: 1024, Height: 768}, Size{Width: 300, Height: 120})

	opts := DefaultOptions(testPageURL)
	opts.Scheduler = clock
	opts.Logger = quietLogger()
	for _, m := range mutate {
		m(&opts)
	}

	rt, err := New(doc, host, transport, opts)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	f := &fixture{t: t, doc: doc, rt: rt, clock: clock, host: host, transport: transport}
	rt.Attach(nil)
	host.Place(f.node("report"), Rect{Left: 400, Top: 300, Width: 120, Height: 20})
	host.Place(f.node("notes"), Rect{Left: 400, Top: 340, Width: 80, Height: 20})
	host.Place(f.node("report-again"), Rect{Left: 400, Top: 380, Width: 60, Height: 20})
	return f
}

func (f *fixture) node(id string) *html.Node {
	f.t.Helper()
	n := f.doc.Find("#" + id).Get(0)
	require.NotNil(f.t, n, "missing #%s", id)
	return n
}

// show hovers the link and waits out the debounce.
func (f *fixture) show(id string) {
	f.rt.PointerEnter(f.node(id))
	f.clock.Advance(DefaultHoverDelay)
	require.Equal(f.t, StateVisible, f.rt.State(f.node(id)))
}

func (f *fixture) waitIdle() {
	f.t.Helper()
	require.Eventually(f.t, func() bool { return f.rt.InFlight() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func (f *fixture) record() SummaryRecord {
	f.t.Helper()
	rec, _, ok := f.rt.Tooltip()
	require.True(f.t, ok, "expected a visible tooltip")
	return rec
}

func (f *fixture) tooltipCount() int {
	var n int
	f.rt.Query(func(doc *goquery.Document) {
		n = doc.Find("." + TooltipClass).Length()
	})
	return n
}

func (f *fixture) attr(id, name string) (string, bool) {
	var (
		val string
		ok  bool
	)
	f.rt.Query(func(doc *goquery.Document) {
		val, ok = doc.Find("#" + id).Attr(name)
	})
	return val, ok
}

func mustParse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}
