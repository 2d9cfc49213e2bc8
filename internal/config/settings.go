// Package config provides loading and validation of the summarizer settings file and
// the environment-driven process configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/document-summarizer/internal/docmatch"
	"github.com/jonathan/document-summarizer/internal/prompts"
	"github.com/jonathan/document-summarizer/internal/schemas"
)

// Defaults for the settings surface.
const (
	DefaultMaxSummaryLength    = 300
	DefaultSupportedExtensions = "pdf, txt, csv, html"
	DefaultCacheTimeout        = 3600
	DefaultEndpointPath        = "/document-summarizer/summarize"
)

// Settings is the summarizer configuration surface. It can be loaded from a JSON or
// YAML file; keys absent from the file keep their defaults.
type Settings struct {
	Enabled             bool   `json:"enabled" yaml:"enabled"`
	AIModel             string `json:"ai_model,omitempty" yaml:"ai_model,omitempty"`
	SummaryPrompt       string `json:"summary_prompt" yaml:"summary_prompt" validate:"required"`
	MaxSummaryLength    int    `json:"max_summary_length" yaml:"max_summary_length" validate:"min=1"`
	SupportedExtensions string `json:"supported_extensions" yaml:"supported_extensions" validate:"required"`
	CacheTimeout        int    `json:"cache_timeout" yaml:"cache_timeout" validate:"min=0"` // seconds, 0 disables caching
	EndpointPath        string `json:"endpoint_path" yaml:"endpoint_path" validate:"required,startswith=/"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             true,
		SummaryPrompt:       prompts.MustGet(prompts.SummarizerFile, "summary_prompt"),
		MaxSummaryLength:    DefaultMaxSummaryLength,
		SupportedExtensions: DefaultSupportedExtensions,
		CacheTimeout:        DefaultCacheTimeout,
		EndpointPath:        DefaultEndpointPath,
	}
}

// LoadSettings loads settings from a JSON or YAML file (chosen by extension) on top of
// DefaultSettings. The document is checked against the embedded settings schema before
// decoding, and the result is validated.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, fmt.Errorf("settings path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("failed to convert settings YAML: %w", err)
		}
	}

	if err := schemas.Validate(schemas.Settings, data); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

var validate = validator.New()

// Validate checks that the settings have usable values.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if len(strings.Trim(strings.TrimSpace(s.SupportedExtensions), ", ")) == 0 {
		return fmt.Errorf("config error: 'supported_extensions' lists no extensions")
	}
	return nil
}

// Matcher returns an extension matcher for the configured supported extensions.
func (s *Settings) Matcher() *docmatch.Matcher {
	return docmatch.ParseList(s.SupportedExtensions)
}

// CacheTTL returns the server-side cache lifetime; zero means caching is disabled.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTimeout) * time.Second
}
