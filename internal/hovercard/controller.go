package hovercard

import (
	"time"

	"golang.org/x/net/html"
)

// Keys handled on a document link.
const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
	KeySpace  = " "
)

// PointerEnter reports the pointer entering a document link.
func (rt *Runtime) PointerEnter(node *html.Node) { rt.onLink(node, rt.pointerEnter) }

// PointerLeave reports the pointer leaving a document link.
func (rt *Runtime) PointerLeave(node *html.Node) { rt.onLink(node, rt.pointerLeave) }

// Focus reports a document link receiving focus.
func (rt *Runtime) Focus(node *html.Node) { rt.onLink(node, rt.focus) }

// Blur reports a document link losing focus.
func (rt *Runtime) Blur(node *html.Node) { rt.onLink(node, rt.blur) }

// KeyDown reports a key pressed on a document link and returns whether the runtime
// consumed it, in which case the host should suppress the default action.
func (rt *Runtime) KeyDown(node *html.Node, key string) bool {
	var consumed bool
	rt.onLink(node, func(ls *linkState) { consumed = rt.keyDown(ls, key) })
	return consumed
}

// Escape reports the Escape key pressed anywhere in the page. It returns whether a
// tooltip was dismissed.
func (rt *Runtime) Escape() bool {
	var dismissed bool
	rt.loop.do(func() { dismissed = rt.escape() })
	return dismissed
}

// TooltipPointerEnter reports the pointer entering the tooltip.
func (rt *Runtime) TooltipPointerEnter() {
	rt.onTooltip(func(tip *tooltip) {
		tip.hovered = true
		rt.keepOpen(tip.owner)
	})
}

// TooltipPointerLeave reports the pointer leaving the tooltip.
func (rt *Runtime) TooltipPointerLeave() {
	rt.onTooltip(func(tip *tooltip) {
		tip.hovered = false
		if tip.owner.state == StateVisible {
			rt.beginClosing(tip.owner, rt.opts.PointerLinger)
		}
	})
}

// TooltipFocus reports focus moving into the tooltip.
func (rt *Runtime) TooltipFocus() {
	rt.onTooltip(func(tip *tooltip) {
		tip.focused = true
		rt.keepOpen(tip.owner)
	})
}

// TooltipBlur reports focus leaving the tooltip.
func (rt *Runtime) TooltipBlur() {
	rt.onTooltip(func(tip *tooltip) {
		tip.focused = false
		if tip.owner.state == StateVisible {
			rt.beginClosing(tip.owner, rt.opts.BlurLinger)
		}
	})
}

func (rt *Runtime) onLink(node *html.Node, fn func(*linkState)) {
	rt.loop.do(func() {
		if ls, ok := rt.links[node]; ok {
			fn(ls)
		}
	})
}

func (rt *Runtime) onTooltip(fn func(*tooltip)) {
	rt.loop.do(func() {
		if rt.tip != nil {
			fn(rt.tip)
		}
	})
}

func (rt *Runtime) pointerEnter(ls *linkState) {
	ls.hovered = true
	switch ls.state {
	case StateIdle:
		rt.scheduleShow(ls, rt.opts.HoverDelay)
	case StateVisible, StateClosing:
		rt.keepOpen(ls)
	}
}

func (rt *Runtime) pointerLeave(ls *linkState) {
	ls.hovered = false
	switch ls.state {
	case StatePendingShow:
		if !ls.focused {
			rt.cancelShow(ls)
		}
	case StateVisible:
		rt.beginClosing(ls, rt.opts.PointerLinger)
	}
}

func (rt *Runtime) focus(ls *linkState) {
	ls.focused = true
	if ls.suppressFocus {
		// Focus returned by Escape must not reopen the tooltip.
		ls.suppressFocus = false
		return
	}
	switch ls.state {
	case StateIdle, StatePendingShow:
		rt.scheduleShow(ls, rt.opts.FocusDelay)
	case StateVisible, StateClosing:
		rt.keepOpen(ls)
	}
}

func (rt *Runtime) blur(ls *linkState) {
	ls.focused = false
	ls.suppressFocus = false
	switch ls.state {
	case StatePendingShow:
		if !ls.hovered {
			rt.cancelShow(ls)
		}
	case StateVisible:
		rt.beginClosing(ls, rt.opts.BlurLinger)
	}
}

func (rt *Runtime) keyDown(ls *linkState, key string) bool {
	switch key {
	case KeyEscape, "Esc":
		return rt.escape()
	case KeyEnter, KeySpace, "Spacebar":
		// Any open tooltip lets the key activate the link normally.
		if rt.tip != nil || (ls.state != StateIdle && ls.state != StatePendingShow) {
			return false
		}
		rt.show(ls)
		return true
	}
	return false
}

// scheduleShow debounces showing ls. There is one pending show at a time: scheduling
// for another link returns the previous one to Idle.
func (rt *Runtime) scheduleShow(ls *linkState, delay time.Duration) {
	if delay <= 0 {
		rt.show(ls)
		return
	}
	if prev := rt.showFor; prev != nil && prev != ls && prev.state == StatePendingShow {
		prev.state = StateIdle
	}
	if rt.showFor == ls && rt.showTimer.pending() {
		return
	}
	rt.showFor = ls
	ls.state = StatePendingShow
	rt.showTimer.start(&rt.loop, rt.sched, delay, func() {
		rt.showFor = nil
		if ls.state == StatePendingShow {
			rt.show(ls)
		}
	})
}

func (rt *Runtime) cancelShow(ls *linkState) {
	if rt.showFor == ls {
		rt.showTimer.stop()
		rt.showFor = nil
	}
	if ls.state == StatePendingShow {
		ls.state = StateIdle
	}
}

// show makes ls the tooltip owner, rendering from the cache or starting a fetch.
func (rt *Runtime) show(ls *linkState) {
	if prev := rt.showFor; prev != nil {
		rt.showTimer.stop()
		rt.showFor = nil
		if prev != ls && prev.state == StatePendingShow {
			prev.state = StateIdle
		}
	}
	rt.hideTimer.stop()

	if rt.tip != nil && rt.tip.owner == ls {
		ls.state = StateVisible
		return
	}

	link := ls.link
	rec, cached := rt.cache.Get(link.URL)
	if cached {
		rec.Cached = true
	} else {
		rec = loadingRecord(link.Filename, link.DocType)
	}

	rt.showTooltip(ls, rec)
	ls.state = StateVisible
	rt.announcer.announce(format(rt.opts.Messages.AnnounceOpened, link.Filename))

	if !cached {
		rt.requests.fetch(ls)
	}
}

// keepOpen cancels a pending close of the tooltip owned by ls.
func (rt *Runtime) keepOpen(ls *linkState) {
	if ls.state == StateClosing {
		rt.hideTimer.stop()
		ls.state = StateVisible
	}
}

// beginClosing starts the linger period unless something still holds the tooltip open.
func (rt *Runtime) beginClosing(ls *linkState, linger time.Duration) {
	if rt.held(ls) {
		return
	}
	ls.state = StateClosing
	rt.hideTimer.start(&rt.loop, rt.sched, linger, func() {
		if rt.tip == nil || rt.tip.owner != ls || ls.state != StateClosing {
			return
		}
		if rt.held(ls) {
			ls.state = StateVisible
			return
		}
		rt.destroyTooltip()
		rt.announcer.announce(rt.opts.Messages.AnnounceClosed)
	})
}

// held reports whether the pointer or focus is still on ls's trigger or tooltip.
func (rt *Runtime) held(ls *linkState) bool {
	if rt.tip == nil || rt.tip.owner != ls {
		return false
	}
	return rt.tip.hovered || rt.tip.focused || ls.hovered || ls.focused
}

// escape dismisses the tooltip and returns focus to its trigger.
func (rt *Runtime) escape() bool {
	if rt.showFor != nil {
		rt.cancelShow(rt.showFor)
	}
	tip := rt.tip
	if tip == nil {
		return false
	}
	owner := tip.owner
	rt.hideTimer.stop()
	rt.destroyTooltip()
	rt.announcer.announce(rt.opts.Messages.AnnounceClosed)

	if !owner.focused {
		owner.suppressFocus = true
	}
	node := owner.link.Node()
	rt.loop.after(func() { rt.host.Focus(node) })
	return true
}

// deliver shows a finished request's record if its document's tooltip is open.
func (rt *Runtime) deliver(url string, rec SummaryRecord, announcement string) {
	if rt.tip == nil || rt.tip.owner.link.URL != url {
		return
	}
	rt.renderTooltip(rec)
	rt.announcer.announce(announcement)
}
