package hovercard

import (
	"fmt"
	"math"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonathan/document-summarizer/internal/pagescan"
)

// Placement is where a tooltip was put, in viewport coordinates.
type Placement struct {
	Left, Top float64
	Below     bool
}

// tooltip is the single live tooltip. At most one exists per Runtime.
type tooltip struct {
	owner     *linkState
	node      *html.Node
	sel       *goquery.Selection
	id        string
	record    SummaryRecord
	placement Placement
	hovered   bool
	focused   bool
	removers  []func()
}

// place centers a tooltip horizontally on the trigger, clamped to the viewport margin,
// above the trigger when it fits and below otherwise.
func place(trigger Rect, tip, viewport Size, margin, gap float64) Placement {
	left := trigger.Left + trigger.Width/2 - tip.Width/2
	left = math.Min(left, viewport.Width-tip.Width-margin)
	left = math.Max(left, margin)

	above := trigger.Top - tip.Height - gap
	if above >= margin {
		return Placement{Left: left, Top: above}
	}
	return Placement{Left: left, Top: trigger.Bottom() + gap, Below: true}
}

// showTooltip creates the tooltip for ls, replacing any tooltip owned by another link.
func (rt *Runtime) showTooltip(ls *linkState, rec SummaryRecord) {
	if rt.tip != nil {
		if rt.tip.owner == ls {
			rt.renderTooltip(rec)
			return
		}
		rt.destroyTooltip()
	}

	id := "doc-summarizer-tooltip-" + uuid.NewString()
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "class", Val: TooltipClass},
			{Key: "role", Val: "tooltip"},
			{Key: "tabindex", Val: "-1"},
		},
	}
	rt.container().AppendNodes(node)

	rt.tip = &tooltip{
		owner: ls,
		node:  node,
		sel:   rt.doc.FindNodes(node),
		id:    id,
	}
	ls.link.Anchor.SetAttr(pagescan.DescribedByAttr, id)

	reposition := func() { rt.loop.do(rt.positionTooltip) }
	rt.tip.removers = append(rt.tip.removers,
		rt.host.Listen(EventScroll, reposition),
		rt.host.Listen(EventResize, reposition),
	)

	rt.renderTooltip(rec)
}

// renderTooltip replaces the tooltip body in place and re-positions it.
func (rt *Runtime) renderTooltip(rec SummaryRecord) {
	if rt.tip == nil {
		return
	}
	markup, err := renderBody(rec, rt.tip.owner.link.Text, rt.opts.Messages)
	if err != nil {
		rt.logger.Error("tooltip render failed", "url", rt.tip.owner.link.URL, "error", err)
		return
	}
	rt.tip.record = rec
	rt.tip.sel.SetHtml(markup)
	rt.positionTooltip()
}

// positionTooltip places the tooltip relative to its trigger using live measurements.
func (rt *Runtime) positionTooltip() {
	if rt.tip == nil {
		return
	}
	trigger := rt.host.Measure(rt.tip.owner.link.Node())
	box := rt.host.Measure(rt.tip.node)
	p := place(trigger, Size{Width: box.Width, Height: box.Height}, rt.host.Viewport(), rt.opts.Margin, rt.opts.Gap)

	rt.tip.placement = p
	rt.tip.sel.SetAttr("style", fmt.Sprintf("position: fixed; left: %.0fpx; top: %.0fpx;", p.Left, p.Top))
	if p.Below {
		rt.tip.sel.AddClass(TooltipBelowClass)
	} else {
		rt.tip.sel.RemoveClass(TooltipBelowClass)
	}
}

// destroyTooltip removes the tooltip, its ARIA wiring and its window listeners. It is
// safe to call when no tooltip exists.
func (rt *Runtime) destroyTooltip() {
	tip := rt.tip
	if tip == nil {
		return
	}
	rt.tip = nil

	for _, remove := range tip.removers {
		remove()
	}
	tip.removers = nil
	tip.sel.Remove()

	if tip.owner.link.Anchor.AttrOr(pagescan.DescribedByAttr, "") == tip.id {
		tip.owner.link.Anchor.RemoveAttr(pagescan.DescribedByAttr)
	}
	tip.owner.state = StateIdle
}

// container is where floating nodes are appended: body, or the document root for
// fragments without one.
func (rt *Runtime) container() *goquery.Selection {
	if body := rt.doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return rt.doc.Selection
}
