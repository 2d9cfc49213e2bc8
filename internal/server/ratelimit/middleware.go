package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RejectionMessage is returned in the envelope of a rate-limited request.
const RejectionMessage = "Too many summary requests. Please try again shortly."

// Middleware rejects requests over the limit with 429 and a failure envelope.
// Rate limit headers are set on every limited response.
func Middleware(l *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientID(r)
			allowed, info := l.Allow(clientID, r.URL.Path, r.Method)
			setHeaders(w, info)

			if !allowed {
				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Round(time.Second).Seconds())))
				}
				logger.Warn("rate limit exceeded",
					"client", clientID,
					"path", r.URL.Path,
					"limit", info.Limit,
					"reset", info.ResetTime.Format(time.RFC3339),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": RejectionMessage})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientID extracts the client identifier (IP address) from the request.
// Proxy headers are honoured only when a RealIP middleware has rewritten RemoteAddr.
func ClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setHeaders sets standard rate limit headers on the response.
func setHeaders(w http.ResponseWriter, info Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}
