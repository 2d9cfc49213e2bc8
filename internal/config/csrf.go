package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSRFConfig holds configuration for anti-forgery token signing and validation.
type CSRFConfig struct {
	Secret          string
	ExpirationHours int
}

// NewCSRFConfig creates a CSRF configuration from environment variables.
// It reads CSRF_SECRET (required) and CSRF_EXPIRATION_HOURS (default: 12).
func NewCSRFConfig() (*CSRFConfig, error) {
	secret := os.Getenv("CSRF_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("CSRF_SECRET is required but not set")
	}

	expirationStr := os.Getenv("CSRF_EXPIRATION_HOURS")
	if expirationStr == "" {
		expirationStr = "12"
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CSRF_EXPIRATION_HOURS: %v", err)
	}

	config := &CSRFConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// Lifetime returns how long an issued token stays valid.
func (c *CSRFConfig) Lifetime() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

func (c *CSRFConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("CSRF_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("CSRF_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
