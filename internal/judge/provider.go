package judge

import (
	"context"
	"net/http"
	"net/url"

	"github.com/infoverif/dimascan/internal/model"
)

// Provider is the external generative judge: given system and user
// prompts it returns raw text expected (but not guaranteed) to be the
// JSON object the prompt requested.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one judge call at zero sampling temperature with a
	// JSON-object response format
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds judge provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for each API request, seconds
	Timeout int

	// MaxRetries bounds retry attempts on transient failures.
	// Auth failures are never retried.
	MaxRetries int

	// RequestsPerSecond rate-limits outbound calls (0 disables)
	RequestsPerSecond float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "",
		Model:             "",
		Timeout:           60,
		MaxRetries:        2,
		RequestsPerSecond: 0,
	}
}

// ConfigFromModel converts model.JudgeConfig to judge.Config
func ConfigFromModel(cfg model.JudgeConfig) Config {
	return Config{
		Provider:          cfg.Provider,
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPProxy:         cfg.HTTPProxy,
		HTTPSProxy:        cfg.HTTPSProxy,
	}
}

// newProxyFunc builds a proxy selector from configuration, falling back
// to environment variables when none is set.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
