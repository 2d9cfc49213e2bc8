// Package summarizer produces cached, length-bounded document summaries from an LLM
// provider. It is the engine behind the summary endpoint and the CLI.
package summarizer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/document-summarizer/internal/cache"
	"github.com/jonathan/document-summarizer/internal/llm"
	"github.com/jonathan/document-summarizer/internal/prompts"
)

// KeyPrefix namespaces summary entries in a shared cache.
const KeyPrefix = "document_summarizer:"

// ErrProviderUnavailable is returned when no LLM client is configured.
var ErrProviderUnavailable = errors.New("AI provider is not configured")

// ProviderError wraps a failure reported by the LLM provider.
type ProviderError struct {
	URL   string
	Model string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for %s: %v", e.Model, e.URL, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Options tune a Service.
type Options struct {
	// Prompt is the summary prompt template; the document URL is substituted or appended.
	Prompt string
	// MaxLength bounds the summary in runes. Zero or less disables truncation.
	MaxLength int
	// TTL is how long summaries are cached. Zero disables caching.
	TTL time.Duration
	// Timeout bounds a single provider call. Zero means no extra bound.
	Timeout time.Duration
}

// Result is the outcome of a successful Summarize call.
type Result struct {
	Summary string
	Cached  bool
}

// Service generates summaries, consulting the cache first.
type Service struct {
	client llm.Client
	store  cache.Store
	opts   Options
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a Service. A nil store disables caching; a nil logger uses slog.Default.
func New(client llm.Client, store cache.Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, opts: opts, logger: logger}
}

// CacheKey returns the cache key for a document URL.
func CacheKey(docURL string) string {
	sum := blake2b.Sum256([]byte(docURL))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Summarize returns the summary for docURL, from cache when present. Concurrent calls
// for the same URL share one provider call.
func (s *Service) Summarize(ctx context.Context, docURL string) (*Result, error) {
	key := CacheKey(docURL)

	if summary, ok := s.lookup(ctx, key); ok {
		s.logger.Debug("summary cache hit", "url", docURL)
		return &Result{Summary: summary, Cached: true}, nil
	}

	// The shared call outlives any single caller; opts.Timeout still bounds it.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), key, docURL)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("summary shared with concurrent request", "url", docURL)
		}
		return &Result{Summary: res.Val.(string)}, nil
	}
}

// Forget drops any cached summary for docURL.
func (s *Service) Forget(ctx context.Context, docURL string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, CacheKey(docURL))
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.store == nil || s.opts.TTL <= 0 {
		return "", false
	}
	summary, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("summary cache read failed", "error", err)
		}
		return "", false
	}
	return summary, true
}

func (s *Service) generate(ctx context.Context, key, docURL string) (string, error) {
	if s.client == nil {
		return "", ErrProviderUnavailable
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	prompt := prompts.BuildSummaryPrompt(s.opts.Prompt, docURL)
	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &ProviderError{URL: docURL, Model: s.client.Model(), Cause: err}
	}

	summary := Truncate(llm.CleanResponse(text), s.opts.MaxLength)
	if summary == "" {
		return "", &ProviderError{URL: docURL, Model: s.client.Model(), Cause: errors.New("empty response")}
	}
	s.logger.Info("summary generated",
		"url", docURL,
		"model", s.client.Model(),
		"runes", len([]rune(summary)),
		"duration", time.Since(start),
	)

	if s.store != nil && s.opts.TTL > 0 {
		if err := s.store.Set(ctx, key, summary, s.opts.TTL); err != nil {
			s.logger.Warn("summary cache write failed", "error", err)
		}
	}
	return summary, nil
}

// Truncate bounds text to max runes. When it cuts, the result ends in "..." and
// still fits within max.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
