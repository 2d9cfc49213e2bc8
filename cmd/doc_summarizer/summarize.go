package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/hovercard"
	"github.com/jonathan/document-summarizer/internal/observability"
	"github.com/jonathan/document-summarizer/internal/server"
	"github.com/jonathan/document-summarizer/internal/types"
)

var summarizeEndpoint string

var summarizeCmd = &cobra.Command{
	Use:   "summarize <document-url>",
	Short: "Summarize one document",
	Long:  "Summarizes a single document URL, either in-process with the configured provider and cache or, with --endpoint, through a running summary server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeEndpoint, "endpoint", "", "Base URL of a running server (e.g. http://localhost:8080); in-process when empty")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	docURL := strings.TrimSpace(args[0])
	env := config.LoadEnv()
	logger := toolLogger(env)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if _, ok := settings.Matcher().Match(docURL); !ok {
		return fmt.Errorf("unsupported document type for %s (supported: %s)", docURL, settings.SupportedExtensions)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var resp *types.SummaryResponse
	if summarizeEndpoint != "" {
		transport, err := newRemoteTransport(summarizeEndpoint, settings.EndpointPath)
		if err != nil {
			return err
		}
		resp, err = transport.Fetch(ctx, docURL)
		if err != nil {
			return fmt.Errorf("summary request failed: %w", err)
		}
	} else {
		svc, cleanup, err := newSummaryService(ctx, env, settings, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.Summarize(ctx, docURL)
		if err != nil {
			logger.Error("summary generation failed", "url", docURL, "error", err)
			failed := types.SummaryFailed(server.MessageProviderFailed)
			resp = &failed
		} else {
			ok := types.SummarySucceeded(result.Summary, result.Cached)
			resp = &ok
		}
	}

	observability.NewPrinter(os.Stdout).PrintSummary(docURL, resp)
	if !resp.Success {
		return fmt.Errorf("no summary for %s", docURL)
	}
	return nil
}

// newRemoteTransport builds a transport for a running server at base, fetching tokens
// from its token endpoint.
func newRemoteTransport(base, endpointPath string) (*hovercard.HTTPTransport, error) {
	client, err := hovercard.NewHTTPClient()
	if err != nil {
		return nil, err
	}
	base = strings.TrimRight(base, "/")
	return &hovercard.HTTPTransport{
		Endpoint: base + endpointPath,
		Client:   client,
		Tokens:   hovercard.NewEndpointTokens(base+server.TokenPath(endpointPath), client),
	}, nil
}
