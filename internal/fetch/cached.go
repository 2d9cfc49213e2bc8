// Package fetch - cached.go keeps fetched pages in a summary cache store.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/document-summarizer/internal/cache"
)

// DefaultPageCacheTTL is how long a fetched page is reused.
const DefaultPageCacheTTL = 10 * time.Minute

// pageKeyPrefix namespaces page entries away from summaries in a shared store.
const pageKeyPrefix = "document_summarizer:page:"

// Loader fetches pages, optionally rendering them in a browser and caching the HTML.
type Loader struct {
	store    cache.Store
	options  *Options
	cacheTTL time.Duration
	mode     string
	render   func(ctx context.Context, url string) (string, error)
	logger   *slog.Logger
}

// LoaderConfig holds configuration for a Loader.
type LoaderConfig struct {
	// Store caches page HTML; nil disables caching.
	Store    cache.Store
	CacheTTL time.Duration
	Options  *Options
	// Render is "never", "auto" (when the static page looks client-rendered) or "always".
	Render        string
	RenderTimeout time.Duration
	Logger        *slog.Logger
}

// Render modes.
const (
	RenderNever  = "never"
	RenderAuto   = "auto"
	RenderAlways = "always"
)

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if cfg.Options == nil {
		cfg.Options = DefaultOptions()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultPageCacheTTL
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Render == "" {
		cfg.Render = RenderNever
	}

	switch cfg.Render {
	case RenderNever, RenderAuto, RenderAlways:
	default:
		return nil, fmt.Errorf("unknown render mode %q (want never, auto or always)", cfg.Render)
	}

	timeout := cfg.RenderTimeout
	return &Loader{
		store:    cfg.Store,
		options:  cfg.Options,
		cacheTTL: cfg.CacheTTL,
		mode:     cfg.Render,
		render: func(ctx context.Context, url string) (string, error) {
			return WithBrowser(ctx, url, timeout, cfg.Logger)
		},
		logger: cfg.Logger,
	}, nil
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	Rendered  bool
}

// Load returns the page at urlStr from cache when fresh, otherwise fetches it.
func (l *Loader) Load(ctx context.Context, urlStr string) (*CachedResult, error) {
	key := pageKeyPrefix + urlStr
	if l.store != nil {
		page, err := l.store.Get(ctx, key)
		switch {
		case err == nil:
			return &CachedResult{
				Result:    &Result{URL: urlStr, FinalURL: urlStr, HTML: page, StatusCode: 200},
				FromCache: true,
			}, nil
		case !errors.Is(err, cache.ErrMiss):
			l.logger.Warn("page cache read failed", "url", urlStr, "error", err)
		}
	}

	result, rendered, err := l.fetch(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	if l.store != nil {
		if err := l.store.Set(ctx, key, result.HTML, l.cacheTTL); err != nil {
			l.logger.Warn("page cache write failed", "url", urlStr, "error", err)
		}
	}
	return &CachedResult{Result: result, Rendered: rendered}, nil
}

func (l *Loader) fetch(ctx context.Context, urlStr string) (*Result, bool, error) {
	if l.mode == RenderAlways {
		return l.renderPage(ctx, urlStr)
	}

	result, err := URL(ctx, urlStr, l.options)
	if err != nil {
		return nil, false, err
	}
	if l.mode == RenderAuto && NeedsRender(result.HTML) {
		l.logger.Info("page looks client-rendered, using browser", "url", urlStr)
		return l.renderPage(ctx, result.FinalURL)
	}
	return result, false, nil
}

func (l *Loader) renderPage(ctx context.Context, urlStr string) (*Result, bool, error) {
	page, err := l.render(ctx, urlStr)
	if err != nil {
		return nil, false, &Error{URL: urlStr, Message: "render failed", Cause: err}
	}
	return &Result{URL: urlStr, FinalURL: urlStr, HTML: page, StatusCode: 200}, true, nil
}

// Invalidate drops a cached page.
func (l *Loader) Invalidate(ctx context.Context, urlStr string) error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, pageKeyPrefix+urlStr)
}
