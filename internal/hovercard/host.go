package hovercard

import (
	"sync"

	"golang.org/x/net/html"
)

// Rect is a box in viewport coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Bottom returns the rect's lower edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Size is a viewport size.
type Size struct {
	Width, Height float64
}

// Host is the embedding environment: it measures layout, moves focus and delivers
// window events. Runtime calls Viewport, Measure and Listen while holding its
// lock, so those must not call back into the Runtime. Focus runs after the lock
// is released.
type Host interface {
	Viewport() Size
	Measure(node *html.Node) Rect
	Focus(node *html.Node)
	// Listen registers fn for a window event ("scroll", "resize") and returns a
	// function that removes it.
	Listen(event string, fn func()) (remove func())
}

// Window events the presenter listens to while a tooltip is shown.
const (
	EventScroll = "scroll"
	EventResize = "resize"
)

// StaticHost is a Host with fixed geometry. It records focus moves and lets the
// caller fire window events by hand.
type StaticHost struct {
	mu          sync.Mutex
	size        Size
	rects       map[*html.Node]Rect
	tooltipSize Size
	focused     []*html.Node
	listeners   map[string]map[int]func()
	nextID      int
	removals    int
}

// NewStaticHost creates a host with the given viewport. Nodes without a placed rect
// measure as tooltipSize at the origin.
func NewStaticHost(viewport, tooltipSize Size) *StaticHost {
	return &StaticHost{
		size:        viewport,
		rects:       make(map[*html.Node]Rect),
		tooltipSize: tooltipSize,
		listeners:   make(map[string]map[int]func()),
	}
}

// Place sets the rect Measure returns for node.
func (h *StaticHost) Place(node *html.Node, r Rect) {
	h.mu.Lock()
	h.rects[node] = r
	h.mu.Unlock()
}

// SetViewport changes the viewport size.
func (h *StaticHost) SetViewport(s Size) {
	h.mu.Lock()
	h.size = s
	h.mu.Unlock()
}

// Viewport implements Host.
func (h *StaticHost) Viewport() Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Measure implements Host.
func (h *StaticHost) Measure(node *html.Node) Rect {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rects[node]; ok {
		return r
	}
	return Rect{Width: h.tooltipSize.Width, Height: h.tooltipSize.Height}
}

// Focus implements Host.
func (h *StaticHost) Focus(node *html.Node) {
	h.mu.Lock()
	h.focused = append(h.focused, node)
	h.mu.Unlock()
}

// Focused returns every node focus was moved to, oldest first.
func (h *StaticHost) Focused() []*html.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*html.Node(nil), h.focused...)
}

// Listen implements Host.
func (h *StaticHost) Listen(event string, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners[event] == nil {
		h.listeners[event] = make(map[int]func())
	}
	h.nextID++
	id := h.nextID
	h.listeners[event][id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.listeners[event][id]; ok {
			delete(h.listeners[event], id)
			h.removals++
		}
	}
}

// Fire invokes every listener registered for event.
func (h *StaticHost) Fire(event string) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.listeners[event]))
	for _, fn := range h.listeners[event] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listeners returns how many listeners are registered for event.
func (h *StaticHost) Listeners(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[event])
}

// Removals returns how many listeners have been removed.
func (h *StaticHost) Removals() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removals
}
