package hovercard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/jonathan/document-summarizer/internal/schemas"
	"github.com/jonathan/document-summarizer/internal/types"
)

const maxResponseBytes = 1 << 20

// Transport fetches one summary envelope from the summary endpoint.
type Transport interface {
	Fetch(ctx context.Context, docURL string) (*types.SummaryResponse, error)
}

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("summary endpoint returned status %d", e.Code)
}

// ParseError is returned when a 200 response body is not a valid envelope.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid summary response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// TokenSource supplies the anti-forgery token sent with every summary request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, as embedded into a page by the host.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// EndpointTokens fetches tokens from the token endpoint and reuses each one until
// shortly before it expires. The client must keep cookies: the token is bound to
// the session cookie set alongside it.
type EndpointTokens struct {
	URL    string
	Client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewEndpointTokens creates a token source for tokenURL.
func NewEndpointTokens(tokenURL string, client *http.Client) *EndpointTokens {
	return &EndpointTokens{URL: tokenURL, Client: client, now: time.Now}
}

// Token implements TokenSource.
func (e *EndpointTokens) Token(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" && e.now().Add(time.Minute).Before(e.expiresAt) {
		return e.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var tr types.TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	if tr.Token == "" {
		return "", errors.New("token endpoint returned an empty token")
	}

	e.token = tr.Token
	e.expiresAt = tr.ExpiresAt
	return e.token, nil
}

// HTTPTransport posts form-encoded summary requests to the summary endpoint.
type HTTPTransport struct {
	Endpoint string
	Client   *http.Client
	Tokens   TokenSource
}

// NewHTTPClient returns a client with a cookie jar, as the summary endpoint ties its
// token to a session cookie.
func NewHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar}, nil
}

// Fetch implements Transport. Cancellation and deadlines come from ctx.
func (t *HTTPTransport) Fetch(ctx context.Context, docURL string) (*types.SummaryResponse, error) {
	token, err := t.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		types.FieldDocURL:    {docURL},
		types.FieldCSRFToken: {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summary request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read summary response: %w", err)
	}
	if err := schemas.Validate(schemas.SummaryResponse, body); err != nil {
		return nil, &ParseError{Cause: err}
	}

	var envelope types.SummaryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ParseError{Cause: err}
	}
	return &envelope, nil
}
