// Package middleware provides HTTP middleware guarding the summary endpoint.
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionIDKey is the context key for storing the verified session ID.
const sessionIDKey ContextKey = "sessionID"

// SessionCookie names the cookie carrying the browser session ID.
const SessionCookie = "doc_summarizer_session"

// TokenField is the form field carrying the anti-forgery token.
const TokenField = "csrf_token"

// TokenValidator is an interface for validating anti-forgery tokens.
// This allows the middleware to work with any token service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (SessionGetter, error)
}

// SessionGetter is an interface for extracting the session ID from token claims.
type SessionGetter interface {
	GetSessionID() string
}

// RequireCSRF creates middleware that rejects requests whose csrf_token form field is
// missing, invalid, or issued for a session other than the one in the session cookie.
// Rejections are 403 with a failure envelope; no request reaches next unchecked.
func RequireCSRF(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := verify(validator, r)
			if err != nil {
				logger.Warn("csrf check failed", "path", r.URL.Path, "remote", r.RemoteAddr, "reason", err)
				deny(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verify(validator TokenValidator, r *http.Request) (string, error) {
	token := r.PostFormValue(TokenField)
	if token == "" {
		return "", fmt.Errorf("missing token")
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("missing session cookie")
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		return "", err
	}

	sessionID := claims.GetSessionID()
	if subtle.ConstantTimeCompare([]byte(sessionID), []byte(cookie.Value)) != 1 {
		return "", fmt.Errorf("token issued for a different session")
	}
	return sessionID, nil
}

func deny(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Access denied"})
}

// GetSessionID extracts the verified session ID from the request context.
func GetSessionID(r *http.Request) (string, error) {
	sessionID, ok := r.Context().Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("session ID not found in request context")
	}
	return sessionID, nil
}

// SessionIDKey returns the context key for the session ID (for testing purposes).
func SessionIDKey() ContextKey {
	return sessionIDKey
}
