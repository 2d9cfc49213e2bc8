package config

import (
	"os"
	"strconv"
)

// Env is the process configuration read from environment variables (and .env).
type Env struct {
	LogLevel string
	LogFile  string

	LLMProvider   string
	GeminiAPIKey  string
	VertexProject string
	VertexRegion  string

	CacheBackend     string
	CacheDSN         string
	FirestoreProject string

	RequestTimeoutSeconds int
}

// LoadEnv reads the process configuration from the environment.
func LoadEnv() *Env {
	return &Env{
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:               getEnvOrDefault("LOG_FILE", "logs/doc_summarizer.log"),
		LLMProvider:           getEnvOrDefault("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		VertexProject:         os.Getenv("VERTEX_PROJECT"),
		VertexRegion:          getEnvOrDefault("VERTEX_REGION", "us-central1"),
		CacheBackend:          getEnvOrDefault("CACHE_BACKEND", "memory"),
		CacheDSN:              os.Getenv("CACHE_DSN"),
		FirestoreProject:      os.Getenv("FIRESTORE_PROJECT"),
		RequestTimeoutSeconds: getEnvIntOrDefault("PROVIDER_TIMEOUT_SECONDS", 60),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
