// Package llm provides the provider configuration and client abstraction used to
// generate document summaries.
package llm

import (
	"fmt"
	"strings"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Gemini API, authenticated with an API key
	ProviderGemini Provider = "gemini"
	// ProviderVertex is Gemini on Vertex AI, authenticated with application default credentials
	ProviderVertex Provider = "vertex"
)

// DefaultModel is used when no ai_model is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Model    string
	// SystemInstruction is sent ahead of every prompt when non-empty.
	SystemInstruction string
	Temperature       float32

	APIKey  string // gemini
	Project string // vertex
	Region  string // vertex
}

// DefaultConfig returns the default configuration (Gemini API, lite model)
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		Model:       DefaultModel,
		Temperature: 0.2,
		Region:      "us-central1",
	}
}

// ParseProvider maps an LLM_PROVIDER value to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderVertex:
		return ProviderVertex, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider %q", s)
	}
}

// WithModel returns a copy of the config using model, or the current model when
// model is empty.
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	if model = strings.TrimSpace(model); model != "" {
		newConfig.Model = model
	}
	return &newConfig
}

// ModelName returns the configured model, falling back to DefaultModel.
func (c *Config) ModelName() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}
