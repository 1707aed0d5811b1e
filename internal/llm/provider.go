// Package llm wraps the text-completion collaborator behind a small
// provider interface and owns the three claim prompts plus the defensive
// decoding of whatever the model returns. The contract with the rest of
// the core is "best-effort JSON-ish text": callers always receive a
// well-formed payload, degraded to a fixed safe default on failure.
package llm

import (
	"context"
	"time"

	"github.com/claimpilot/claimpilot/internal/model"
)

// Provider defines the interface for text-completion backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends one prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible.
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for a single completion request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 1200,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
