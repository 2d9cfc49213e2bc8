package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/fetch"
	"github.com/jonathan/document-summarizer/internal/hovercard"
	"github.com/jonathan/document-summarizer/internal/pagescan"
)

// Script is a recorded hover session: a page plus the events a visitor produced.
type Script struct {
	PageURL  string    `yaml:"page_url"`
	Page     string    `yaml:"page"`
	HTML     string    `yaml:"html"`
	Endpoint string    `yaml:"endpoint"`
	Viewport *viewport `yaml:"viewport"`
	Steps    []Step    `yaml:"steps"`
}

type viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one scripted event, pause or expectation. Link events name their target with
// a CSS selector.
type Step struct {
	Hover        string        `yaml:"hover"`
	Leave        string        `yaml:"leave"`
	Focus        string        `yaml:"focus"`
	Blur         string        `yaml:"blur"`
	Key          string        `yaml:"key"`
	Target       string        `yaml:"target"`
	Escape       bool          `yaml:"escape"`
	TooltipEnter bool          `yaml:"tooltip_enter"`
	TooltipLeave bool          `yaml:"tooltip_leave"`
	TooltipFocus bool          `yaml:"tooltip_focus"`
	TooltipBlur  bool          `yaml:"tooltip_blur"`
	Scroll       bool          `yaml:"scroll"`
	Wait         time.Duration `yaml:"wait"`
	Settle       time.Duration `yaml:"settle"`
	Expect       string        `yaml:"expect"`
	ExpectText   string        `yaml:"expect_text"`
}

// LoadScript reads a YAML session script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML session script.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if sc.HTML == "" && sc.Page == "" {
		return nil, fmt.Errorf("script needs a page or inline html")
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	return &sc, nil
}

// markup returns the page HTML and the URL it is served from.
func (sc *Script) markup(ctx context.Context) (string, string, error) {
	if sc.HTML != "" {
		return sc.HTML, sc.PageURL, nil
	}
	if fetch.IsRemote(sc.Page) {
		res, err := fetch.URL(ctx, sc.Page, nil)
		if err != nil {
			return "", "", err
		}
		return res.HTML, res.FinalURL, nil
	}
	res, err := fetch.File(sc.Page, sc.PageURL)
	if err != nil {
		return "", "", err
	}
	return res.HTML, res.FinalURL, nil
}

// scriptRunner replays a Script against a hovercard Runtime on a manual clock.
type scriptRunner struct {
	rt      *hovercard.Runtime
	host    *hovercard.StaticHost
	clock   *hovercard.ManualClock
	start   time.Time
	last    *html.Node
	lastSel string

	mu    sync.Mutex
	lines []string
}

// runScript replays sc and returns the transcript and the final page markup.
func runScript(ctx context.Context, sc *Script, transport hovercard.Transport, matcher *docmatch.Matcher, logger *slog.Logger) ([]string, string, error) {
	page, pageURL, err := sc.markup(ctx)
	if err != nil {
		return nil, "", err
	}
	doc, err := pagescan.Parse(strings.NewReader(page))
	if err != nil {
		return nil, "", err
	}

	vp := hovercard.Size{Width: 1280, Height: 800}
	if sc.Viewport != nil {
		vp = hovercard.Size{Width: sc.Viewport.Width, Height: sc.Viewport.Height}
	}
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &scriptRunner{
		host:  hovercard.NewStaticHost(vp, hovercard.Size{Width: 320, Height: 140}),
		clock: hovercard.NewManualClock(start),
		start: start,
	}

	opts := hovercard.DefaultOptions(pageURL)
	opts.Extensions = matcher
	opts.Scheduler = r.clock
	opts.Logger = logger
	opts.OnAnnounce = func(msg string) { r.logf("announce %q", msg) }

	r.rt, err = hovercard.New(doc, r.host, transport, opts)
	if err != nil {
		return nil, "", err
	}
	defer r.rt.Close()

	links := r.rt.Attach(nil)
	for i, link := range links {
		// Stack links down the page so each has its own box.
		r.host.Place(link.Node(), hovercard.Rect{Left: 200, Top: 200 + float64(i)*40, Width: 160, Height: 20})
	}
	r.logf("attached %d document links", len(links))

	for i, step := range sc.Steps {
		if err := r.step(ctx, step); err != nil {
			return r.transcript(), "", fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	out, err := r.rt.HTML()
	return r.transcript(), out, err
}

func (r *scriptRunner) step(ctx context.Context, s Step) error {
	link := func(sel string, fn func(*html.Node), name string) error {
		node, err := r.find(sel)
		if err != nil {
			return err
		}
		fn(node)
		r.logf("%s %s -> %s", name, sel, r.rt.State(node))
		return nil
	}

	var err error
	switch {
	case s.Hover != "":
		err = link(s.Hover, r.rt.PointerEnter, "hover")
	case s.Leave != "":
		err = link(s.Leave, r.rt.PointerLeave, "leave")
	case s.Focus != "":
		err = link(s.Focus, r.rt.Focus, "focus")
	case s.Blur != "":
		err = link(s.Blur, r.rt.Blur, "blur")
	case s.Key != "":
		sel := s.Target
		if sel == "" {
			sel = r.lastSel
		}
		node, err := r.find(sel)
		if err != nil {
			return err
		}
		consumed := r.rt.KeyDown(node, s.Key)
		r.logf("key %q on %s consumed=%t -> %s", s.Key, sel, consumed, r.rt.State(node))
	case s.Escape:
		r.logf("escape dismissed=%t", r.rt.Escape())
	case s.TooltipEnter:
		r.rt.TooltipPointerEnter()
		r.logf("tooltip hover")
	case s.TooltipLeave:
		r.rt.TooltipPointerLeave()
		r.logf("tooltip leave")
	case s.TooltipFocus:
		r.rt.TooltipFocus()
		r.logf("tooltip focus")
	case s.TooltipBlur:
		r.rt.TooltipBlur()
		r.logf("tooltip blur")
	case s.Scroll:
		r.host.Fire(hovercard.EventScroll)
		r.logf("scroll")
	case s.Wait > 0:
		r.clock.Advance(s.Wait)
		r.logf("wait %s", s.Wait)
	case s.Settle > 0:
		if err = r.settle(ctx, s.Settle); err == nil {
			r.logf("settled")
		}
	case s.Expect != "" || s.ExpectText != "":
	default:
		return fmt.Errorf("empty step")
	}
	if err != nil {
		return err
	}
	return r.expect(s)
}

// expect checks a step's expectation. Link states name the state of the step's target
// (or the last link touched); "hidden", "loading", "summary" and "error" describe the
// tooltip.
func (r *scriptRunner) expect(s Step) error {
	if s.Expect != "" {
		got, err := r.observe(s.Expect, s.Target)
		if err != nil {
			return err
		}
		if got != s.Expect {
			return fmt.Errorf("expected %s, got %s", s.Expect, got)
		}
	}
	if s.ExpectText != "" {
		rec, _, ok := r.rt.Tooltip()
		text := rec.Summary + rec.Error
		if !ok || !strings.Contains(text, s.ExpectText) {
			return fmt.Errorf("expected tooltip text containing %q, got %q", s.ExpectText, text)
		}
	}
	return nil
}

func (r *scriptRunner) observe(want, target string) (string, error) {
	switch want {
	case "hidden", "loading", "summary", "error":
		rec, _, ok := r.rt.Tooltip()
		switch {
		case !ok:
			return "hidden", nil
		case rec.Loading:
			return "loading", nil
		case rec.Error != "":
			return "error", nil
		default:
			return "summary", nil
		}
	}

	node := r.last
	if target != "" {
		n, err := r.find(target)
		if err != nil {
			return "", err
		}
		node = n
	}
	if node == nil {
		return "", fmt.Errorf("no link to check %q against", want)
	}
	return r.rt.State(node).String(), nil
}

func (r *scriptRunner) find(sel string) (*html.Node, error) {
	var node *html.Node
	r.rt.Query(func(doc *goquery.Document) {
		node = doc.Find(sel).Get(0)
	})
	if node == nil {
		return nil, fmt.Errorf("no element matches %q", sel)
	}
	r.last, r.lastSel = node, sel
	return node, nil
}

// settle waits in real time for outstanding summary requests, up to limit.
func (r *scriptRunner) settle(ctx context.Context, limit time.Duration) error {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for r.rt.InFlight() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("requests still in flight after %s", limit)
		case <-tick.C:
		}
	}
	return nil
}

func (r *scriptRunner) logf(format string, args ...any) {
	elapsed := r.clock.Now().Sub(r.start)
	line := fmt.Sprintf("%8s  %s", "+"+elapsed.String(), fmt.Sprintf(format, args...))
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *scriptRunner) transcript() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
