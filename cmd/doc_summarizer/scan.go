package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/document-summarizer/internal/cache"
	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/fetch"
	"github.com/jonathan/document-summarizer/internal/observability"
	"github.com/jonathan/document-summarizer/internal/pagescan"
	"github.com/jonathan/document-summarizer/internal/types"
)

var (
	scanPageURL     string
	scanRender      string
	scanExtensions  string
	scanDecorateOut string
	scanSummarize   bool
	scanEndpoint    string
	scanConcurrency int
	scanCachePages  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <page-url-or-file>",
	Short: "List the document links on a page",
	Long:  "Scans a page for links to supported documents, optionally writing the decorated markup and fetching each document's summary from a running server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPageURL, "page-url", "", "Address relative links resolve against when scanning a file")
	scanCmd.Flags().StringVar(&scanRender, "render", fetch.RenderNever, "Render with headless Chrome: never, auto or always")
	scanCmd.Flags().StringVar(&scanExtensions, "extensions", "", "Comma-separated extensions; overrides the settings file")
	scanCmd.Flags().StringVarP(&scanDecorateOut, "out", "o", "", "Write the decorated page to this file")
	scanCmd.Flags().BoolVar(&scanSummarize, "summarize", false, "Fetch a summary for every link (requires --endpoint)")
	scanCmd.Flags().StringVar(&scanEndpoint, "endpoint", "", "Base URL of a running server")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 4, "Concurrent summary requests")
	scanCmd.Flags().BoolVar(&scanCachePages, "cache-pages", false, "Reuse fetched pages through the configured cache backend")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	src := args[0]
	env := config.LoadEnv()
	logger := toolLogger(env)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	matcher := settings.Matcher()
	if scanExtensions != "" {
		matcher = docmatch.ParseList(scanExtensions)
	}
	if scanSummarize && scanEndpoint == "" {
		return fmt.Errorf("--summarize requires --endpoint")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var page *fetch.Result
	if fetch.IsRemote(src) {
		var store cache.Store
		if scanCachePages {
			store, err = cache.Open(ctx, env.CacheBackend, env.CacheDSN)
			if err != nil {
				return fmt.Errorf("failed to open %s cache: %w", env.CacheBackend, err)
			}
			defer func() { _ = store.Close() }()
		}
		loader, err := fetch.NewLoader(fetch.LoaderConfig{Store: store, Render: scanRender, Logger: logger})
		if err != nil {
			return err
		}
		loaded, err := loader.Load(ctx, src)
		if err != nil {
			return err
		}
		logger.Debug("page loaded", "url", src, "from_cache", loaded.FromCache, "rendered", loaded.Rendered)
		page = loaded.Result
	} else {
		pageURL := scanPageURL
		if pageURL == "" {
			abs, err := filepath.Abs(src)
			if err != nil {
				return err
			}
			pageURL = "file://" + filepath.ToSlash(abs)
		}
		page, err = fetch.File(src, pageURL)
		if err != nil {
			return err
		}
	}

	decorated, links, err := pagescan.Decorate(page.FinalURL, page.HTML, matcher)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintLinks(page.FinalURL, links)

	if scanDecorateOut != "" {
		if err := os.WriteFile(scanDecorateOut, []byte(decorated), 0o644); err != nil {
			return fmt.Errorf("failed to write decorated page: %w", err)
		}
		logger.Info("decorated page written", "path", scanDecorateOut, "links", len(links))
	}

	if !scanSummarize {
		return nil
	}
	responses, err := summarizeLinks(ctx, scanEndpoint, settings.EndpointPath, links, scanConcurrency)
	if err != nil {
		return err
	}
	for i, link := range links {
		printer.PrintSummary(link.URL, responses[i])
	}
	return nil
}

// summarizeLinks requests a summary for each distinct link URL through a running
// server, at most limit at a time. Transport failures become failure envelopes so one
// bad link does not hide the rest.
func summarizeLinks(ctx context.Context, base, endpointPath string, links []*pagescan.DocumentLink, limit int) ([]*types.SummaryResponse, error) {
	transport, err := newRemoteTransport(base, endpointPath)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		unique = make(map[string]*types.SummaryResponse)
		urls   []string
	)
	for _, link := range links {
		if _, seen := unique[link.URL]; !seen {
			unique[link.URL] = nil
			urls = append(urls, link.URL)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, url := range urls {
		url := url
		g.Go(func() error {
			resp, err := transport.Fetch(gctx, url)
			if err != nil {
				failed := types.SummaryFailed(err.Error())
				resp = &failed
			}
			mu.Lock()
			unique[url] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*types.SummaryResponse, len(links))
	for i, link := range links {
		out[i] = unique[link.URL]
	}
	return out, nil
}
