package ratelimit

import (
	"strings"
)

// AssetPrefix marks static asset paths, which are never rate limited.
const AssetPrefix = "/document-summarizer/assets/"

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching for configured paths ending in "/".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks and static assets are unlimited
	if method == "GET" && (path == "/health" || strings.HasPrefix(path, AssetPrefix)) {
		return &EndpointConfig{}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
