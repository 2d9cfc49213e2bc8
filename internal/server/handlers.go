package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/server/middleware"
	"github.com/jonathan/document-summarizer/internal/summarizer"
	"github.com/jonathan/document-summarizer/internal/types"
)

// handleSummarize validates the document URL and returns its summary envelope.
// Provider failures are application failures: HTTP 200 with success=false.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	req := &types.SummarizeRequest{
		DocURL:    strings.TrimSpace(r.PostFormValue(types.FieldDocURL)),
		CSRFToken: r.PostFormValue(types.FieldCSRFToken),
	}
	if err := s.validateRequest(req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.summarizer.Summarize(r.Context(), req.DocURL)
	if err != nil {
		var perr *summarizer.ProviderError
		switch {
		case errors.As(err, &perr):
			s.logger.Error("summary generation failed", "url", req.DocURL, "model", perr.Model, "error", perr.Cause)
		case errors.Is(err, summarizer.ErrProviderUnavailable):
			s.logger.Error("summary generation unavailable", "url", req.DocURL, "error", err)
		default:
			s.logger.Error("summary generation failed", "url", req.DocURL, "error", err)
		}
		s.jsonResponse(w, http.StatusOK, types.SummaryFailed(MessageProviderFailed))
		return
	}

	s.jsonResponse(w, http.StatusOK, types.SummarySucceeded(result.Summary, result.Cached))
}

// validateRequest checks the form fields and that the URL is an absolute http(s)
// URL of a supported document type.
func (s *Server) validateRequest(req *types.SummarizeRequest) error {
	if req.DocURL == "" {
		return &ErrValidation{Field: types.FieldDocURL, Message: "Document URL is required"}
	}
	if err := req.Validate(); err != nil {
		return &ErrValidation{Field: types.FieldDocURL, Message: "Invalid document URL"}
	}

	u, err := url.Parse(req.DocURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ErrValidation{Field: types.FieldDocURL, Message: "Invalid document URL"}
	}

	if _, ok := s.matcher.Match(req.DocURL); !ok {
		ext := docmatch.Extension(req.DocURL)
		if ext == "" {
			ext = "(none)"
		}
		return &ErrValidation{Field: types.FieldDocURL, Message: fmt.Sprintf("Unsupported document type: %s", ext)}
	}
	return nil
}

// handleToken issues an anti-forgery token bound to the caller's session cookie,
// creating the session when the request has none.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if _, perr := uuid.Parse(cookie.Value); perr == nil {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	token, expiresAt, err := s.csrf.GenerateToken(sessionID)
	if err != nil {
		s.logger.Error("failed to issue csrf token", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, types.SummaryFailed("Unable to issue token"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	s.jsonResponse(w, http.StatusOK, types.TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// handleStylesheet serves the tooltip CSS contract.
func (s *Server) handleStylesheet(w http.ResponseWriter, _ *http.Request) {
	css, err := assetFiles.ReadFile("assets/" + StylesheetName)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(css)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.settings.Enabled {
		status = "disabled"
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": status})
}

// errorResponse writes a failure envelope with the status mapped from err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), types.SummaryFailed(publicMessage(err)))
}
