package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/document-summarizer/internal/config"
	"github.com/jonathan/document-summarizer/internal/server/middleware"
)

// Claims represents anti-forgery token claims bound to a browser session.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GetSessionID returns the session the token was issued for.
// This implements the middleware.SessionGetter interface.
func (c *Claims) GetSessionID() string {
	return c.SessionID
}

// AsTokenValidator returns a TokenValidator adapter for this CSRFService.
// This allows the service to be used with middleware without creating import cycles.
func (s *CSRFService) AsTokenValidator() middleware.TokenValidator {
	return &csrfServiceValidator{service: s}
}

// csrfServiceValidator adapts CSRFService to middleware.TokenValidator interface.
type csrfServiceValidator struct {
	service *CSRFService
}

func (v *csrfServiceValidator) ValidateToken(tokenString string) (middleware.SessionGetter, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CSRFService issues and validates HS256 anti-forgery tokens.
type CSRFService struct {
	config *config.CSRFConfig
	now    func() time.Time
}

// NewCSRFService creates a new CSRF service with the given configuration.
func NewCSRFService(cfg *config.CSRFConfig) *CSRFService {
	return &CSRFService{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken generates a token for sessionID and returns it with its expiry.
func (s *CSRFService) GenerateToken(sessionID string) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, fmt.Errorf("session ID is empty")
	}

	now := s.now()
	expiresAt := now.Add(s.config.Lifetime())

	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a token and returns the claims.
func (s *CSRFService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}
