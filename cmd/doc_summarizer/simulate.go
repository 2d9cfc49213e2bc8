package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/observability"
)

var (
	simulateScript   string
	simulateEndpoint string
	simulateHTMLOut  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a hover session against a running server",
	Long:  "Replays a YAML script of pointer, focus and key events through the tooltip runtime on a virtual clock, fetching summaries from a running server, and prints the resulting transcript.",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateScript, "script", "s", "", "Path to the session script (required)")
	simulateCmd.Flags().StringVar(&simulateEndpoint, "endpoint", "", "Base URL of a running server; overrides the script's endpoint")
	simulateCmd.Flags().StringVarP(&simulateHTMLOut, "out", "o", "", "Write the final page markup to this file")

	if err := simulateCmd.MarkFlagRequired("script"); err != nil {
		panic(fmt.Sprintf("failed to mark script flag as required: %v", err))
	}

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	env := config.LoadEnv()
	logger := toolLogger(env)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	sc, err := LoadScript(simulateScript)
	if err != nil {
		return err
	}

	endpoint := simulateEndpoint
	if endpoint == "" {
		endpoint = sc.Endpoint
	}
	if endpoint == "" {
		return fmt.Errorf("an endpoint is required (--endpoint or the script's endpoint)")
	}
	transport, err := newRemoteTransport(endpoint, settings.EndpointPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	lines, page, runErr := runScript(ctx, sc, transport, settings.Matcher(), logger)
	observability.NewPrinter(os.Stdout).PrintTranscript(lines)
	if runErr != nil {
		return runErr
	}

	if simulateHTMLOut != "" {
		if err := os.WriteFile(simulateHTMLOut, []byte(page), 0o644); err != nil {
			return fmt.Errorf("failed to write page: %w", err)
		}
	}
	return nil
}
