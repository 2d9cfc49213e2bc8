package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSRFConfig_DefaultValues(t *testing.T) {
	t.Setenv("CSRF_SECRET", "0123456789abcdef-secret")
	t.Setenv("CSRF_EXPIRATION_HOURS", "")

	cfg, err := NewCSRFConfig()
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef-secret", cfg.Secret)
	assert.Equal(t, 12, cfg.ExpirationHours)
	assert.Equal(t, 12*time.Hour, cfg.Lifetime())
}

func TestNewCSRFConfig_Errors(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		errPart    string
	}{
		{"missing secret", "", "", "CSRF_SECRET is required"},
		{"short secret", "short", "", "at least 16 characters"},
		{"bad expiration", "0123456789abcdef", "soon", "invalid CSRF_EXPIRATION_HOURS"},
		{"zero expiration", "0123456789abcdef", "0", "at least 1 hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CSRF_SECRET", tt.secret)
			t.Setenv("CSRF_EXPIRATION_HOURS", tt.expiration)

			_, err := NewCSRFConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "abc")

	env := LoadEnv()
	assert.Equal(t, "memory", env.CacheBackend)
	assert.Equal(t, "gemini", env.LLMProvider)
	assert.Equal(t, 60, env.RequestTimeoutSeconds)
}
