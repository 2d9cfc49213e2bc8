// Package server provides the HTTP summary endpoint consumed by the hover tooltips.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/server/middleware"
	"github.com/jonathan/document-summarizer/internal/server/ratelimit"
	"github.com/jonathan/document-summarizer/internal/summarizer"
)

// StylesheetName is the CSS contract file served under the assets path.
const StylesheetName = "document-summarizer.css"

//go:embed assets/document-summarizer.css
var assetFiles embed.FS

// Summarizer produces a summary for a document URL.
type Summarizer interface {
	Summarize(ctx context.Context, docURL string) (*summarizer.Result, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	settings    *config.Settings
	matcher     *docmatch.Matcher
	summarizer  Summarizer
	csrf        *CSRFService
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
}

// Config holds server configuration
type Config struct {
	Addr       string
	Settings   *config.Settings
	CSRF       *config.CSRFConfig
	Summarizer Summarizer
	// RateLimit is optional; nil disables rate limiting.
	RateLimit *ratelimit.Config
	Logger    *slog.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if cfg.CSRF == nil {
		return nil, fmt.Errorf("CSRF configuration is required")
	}
	if cfg.Summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		settings:   cfg.Settings,
		matcher:    cfg.Settings.Matcher(),
		summarizer: cfg.Summarizer,
		csrf:       NewCSRFService(cfg.CSRF),
		logger:     cfg.Logger,
	}
	if cfg.RateLimit != nil {
		s.rateLimiter = ratelimit.NewLimiter(cfg.RateLimit)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // provider calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// TokenPath returns the path of the token endpoint, a sibling of the summarize path.
func TokenPath(summarizePath string) string {
	return path.Join(path.Dir(summarizePath), "token")
}

// AssetsPath returns the prefix static assets are served under.
func AssetsPath(summarizePath string) string {
	return path.Join(path.Dir(summarizePath), "assets") + "/"
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	if s.rateLimiter != nil {
		r.Use(ratelimit.Middleware(s.rateLimiter, s.logger))
	}

	summarizePath := s.settings.EndpointPath
	r.Get("/health", s.handleHealth)
	r.Get(TokenPath(summarizePath), s.handleToken)
	r.Get(AssetsPath(summarizePath)+StylesheetName, s.handleStylesheet)
	r.With(s.requireEnabled, middleware.RequireCSRF(s.csrf.AsTokenValidator(), s.logger)).
		Post(summarizePath, s.handleSummarize)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String(), "endpoint", s.settings.EndpointPath)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.logger.Info("server stopped")
	return nil
}

// requestLogger logs one line per request with status, size and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// requireEnabled rejects summarize calls while the summarizer is switched off.
func (s *Server) requireEnabled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.settings.Enabled {
			s.errorResponse(w, &ErrDisabled{})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}
