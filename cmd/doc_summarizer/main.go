// Package main provides the doc_summarizer CLI: the summary endpoint server plus tools
// for scanning pages, summarizing single documents and replaying hover sessions.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/observability"
)

var (
	settingsFile string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:          "doc_summarizer",
	Short:        "Document link summaries for web pages",
	Long:         "doc_summarizer serves AI-generated summaries of linked documents for hover tooltips, and includes tools to scan pages for document links and replay hover sessions.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Path to a settings file (JSON or YAML); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads --settings, or returns the defaults.
func loadSettings() (*config.Settings, error) {
	if settingsFile == "" {
		settings := config.DefaultSettings()
		return &settings, nil
	}
	return config.LoadSettings(settingsFile)
}

// level returns the effective log level.
func level(env *config.Env) string {
	if logLevel != "" {
		return logLevel
	}
	return env.LogLevel
}

// toolLogger returns a stderr logger for the non-server commands, keeping stdout for
// their output.
func toolLogger(env *config.Env) *slog.Logger {
	return observability.NewLogger(os.Stderr, level(env))
}
