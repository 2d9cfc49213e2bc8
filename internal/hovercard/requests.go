package hovercard

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/document-summarizer/internal/types"
)

var (
	errRequestTimedOut = errors.New("summary request timed out")
	errRequestAborted  = errors.New("summary request aborted")
)

// request is one in-flight summary fetch.
type request struct {
	url      string
	filename string
	docType  string
	started  time.Time
	cancel   context.CancelCauseFunc
	timeout  timerSlot
}

// coordinator owns the in-flight request table: at most one request per URL.
type coordinator struct {
	rt     *Runtime
	active map[string]*request
}

// fetch starts a request for the link's URL unless one is already in flight.
// Caller holds the loop lock.
func (c *coordinator) fetch(ls *linkState) {
	url := ls.link.URL
	if _, busy := c.active[url]; busy {
		return
	}

	ctx, cancel := context.WithCancelCause(c.rt.ctx)
	req := &request{
		url:      url,
		filename: ls.link.Filename,
		docType:  ls.link.DocType,
		started:  time.Now(),
		cancel:   cancel,
	}
	c.active[url] = req
	req.timeout.start(&c.rt.loop, c.rt.sched, c.rt.opts.RequestTimeout, func() { c.expire(req) })

	c.rt.logger.Debug("summary request started", "url", url)

	transport := c.rt.transport
	go func() {
		resp, err := transport.Fetch(ctx, url)
		c.rt.loop.do(func() { c.complete(req, resp, err) })
	}()
}

// expire aborts a request that outlived the timeout and reports it. Caller holds the
// loop lock.
func (c *coordinator) expire(req *request) {
	if c.active[req.url] != req {
		return
	}
	delete(c.active, req.url)
	req.cancel(errRequestTimedOut)

	c.rt.logger.Warn("summary request timed out", "url", req.url, "timeout", c.rt.opts.RequestTimeout)
	c.rt.deliver(req.url, SummaryRecord{
		Filename: req.filename,
		DocType:  req.docType,
		Error:    c.rt.opts.Messages.TimedOut,
	}, format(c.rt.opts.Messages.AnnounceTimedOut, req.filename))
}

// complete handles a finished fetch. Completions for requests no longer in the table
// (timed out, cancelled or superseded) are dropped. Caller holds the loop lock.
func (c *coordinator) complete(req *request, resp *types.SummaryResponse, err error) {
	if c.active[req.url] != req {
		return
	}
	delete(c.active, req.url)
	req.timeout.stop()
	req.cancel(nil)

	msgs := c.rt.opts.Messages
	rec := SummaryRecord{Filename: req.filename, DocType: req.docType}
	logger := c.rt.logger.With("url", req.url, "duration", time.Since(req.started))

	var parseErr *ParseError
	switch {
	case errors.As(err, &parseErr):
		logger.Warn("summary response rejected", "error", err)
		rec.Error = msgs.InvalidResponse
	case err != nil:
		logger.Warn("summary request failed", "error", err)
		rec.Error = msgs.LoadFailed
	case resp == nil:
		logger.Warn("summary response missing")
		rec.Error = msgs.InvalidResponse
	case !resp.Success:
		logger.Info("summary unavailable", "reason", resp.Error)
		rec.Error = resp.Error
		if rec.Error == "" {
			rec.Error = msgs.GenericFailure
		}
	default:
		logger.Debug("summary loaded", "cached", resp.Cached)
		rec.Summary = resp.Summary
		rec.Cached = resp.Cached
		c.rt.cache.Put(req.url, rec)
		c.rt.deliver(req.url, rec, format(msgs.AnnounceLoaded, req.filename))
		return
	}
	c.rt.deliver(req.url, rec, format(msgs.AnnounceFailed, req.filename))
}

// cancelAll aborts every in-flight request; their completions are discarded.
func (c *coordinator) cancelAll() int {
	n := len(c.active)
	for url, req := range c.active {
		req.timeout.stop()
		req.cancel(errRequestAborted)
		delete(c.active, url)
	}
	return n
}
