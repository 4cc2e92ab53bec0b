package judge

import (
	"fmt"
	"strings"
)

// NewProvider creates a judge provider based on configuration.
// An empty provider name disables the judge and returns nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown judge provider: %s (supported: openai, ollama)", config.Provider)
	}
}
