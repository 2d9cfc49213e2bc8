package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/document-summarizer/internal/cache"
	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/llm"
	"github.com/jonathan/document-summarizer/internal/observability"
	"github.com/jonathan/document-summarizer/internal/prompts"
	"github.com/jonathan/document-summarizer/internal/server"
	"github.com/jonathan/document-summarizer/internal/server/ratelimit"
	"github.com/jonathan/document-summarizer/internal/summarizer"
)

var (
	serveAddr        string
	serveNoRateLimit bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the summary endpoint server",
	Long:  `Start an HTTP server that issues anti-forgery tokens, serves the tooltip stylesheet and answers summary requests.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveNoRateLimit, "no-rate-limit", false, "Disable per-client rate limiting")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	env := config.LoadEnv()
	if err := observability.SetupLogger(level(env), env.LogFile); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger := slog.Default()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	csrfConfig, err := config.NewCSRFConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newSummaryService(ctx, env, settings, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := server.Config{
		Addr:       serveAddr,
		Settings:   settings,
		CSRF:       csrfConfig,
		Summarizer: svc,
		Logger:     logger,
	}
	if !serveNoRateLimit {
		rl := ratelimit.LoadConfig(settings.EndpointPath, server.TokenPath(settings.EndpointPath))
		if rl.Enabled {
			cfg.RateLimit = rl
		}
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting server",
		"addr", serveAddr,
		"endpoint", settings.EndpointPath,
		"enabled", settings.Enabled,
		"extensions", settings.SupportedExtensions,
	)
	return srv.Start(ctx)
}

// newSummaryService wires the cache store and LLM client into a summarizer. A provider
// that cannot be configured leaves the service without a client, so requests fail
// with the generic message instead of the process refusing to start.
func newSummaryService(ctx context.Context, env *config.Env, settings *config.Settings, logger *slog.Logger) (*summarizer.Service, func(), error) {
	dsn := env.CacheDSN
	if env.CacheBackend == cache.BackendFirestore && dsn == "" {
		dsn = env.FirestoreProject
	}
	store, err := cache.Open(ctx, env.CacheBackend, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s cache: %w", env.CacheBackend, err)
	}

	client, err := newLLMClient(ctx, env, settings)
	if err != nil {
		logger.Warn("AI provider unavailable; summaries will fail", "provider", env.LLMProvider, "error", err)
		client = nil
	}

	svc := summarizer.New(client, store, summarizer.Options{
		Prompt:    settings.SummaryPrompt,
		MaxLength: settings.MaxSummaryLength,
		TTL:       settings.CacheTTL(),
		Timeout:   time.Duration(env.RequestTimeoutSeconds) * time.Second,
	}, logger)

	cleanup := func() {
		if client != nil {
			_ = client.Close()
		}
		_ = store.Close()
	}
	return svc, cleanup, nil
}

func newLLMClient(ctx context.Context, env *config.Env, settings *config.Settings) (llm.Client, error) {
	provider, err := llm.ParseProvider(env.LLMProvider)
	if err != nil {
		return nil, err
	}
	cfg := llm.DefaultConfig().WithModel(settings.AIModel)
	cfg.Provider = provider
	cfg.APIKey = env.GeminiAPIKey
	cfg.Project = env.VertexProject
	cfg.Region = env.VertexRegion
	cfg.SystemInstruction = prompts.MustGet(prompts.SummarizerFile, "system_instruction")
	return llm.NewClient(ctx, cfg)
}
