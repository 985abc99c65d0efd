// Package answer turns a retrieval context block and a user question into a
// model answer. It defines a provider-agnostic LLM interface with concrete
// implementations for Gemini and OpenAI and a deterministic mock for testing.
// The generator consumes pre-assembled prompts and returns structured answers.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLLMFailed       = errors.New("LLM request failed")
	ErrInvalidConfig   = errors.New("invalid LLM configuration")
	ErrResponseBlocked = errors.New("response blocked by content filter")
)

// Provider identifies a hosted model service.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a prompt using the configured model.
	// Returns the generated text or an error if generation fails.
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Provider selects the backing service (gemini or openai)
	Provider Provider

	// Model specifies the model identifier (e.g., "gemini-2.0-flash", "gpt-4o")
	Model string

	// Temperature controls randomness (0 = provider default)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o"
	default:
		return "gemini-2.0-flash"
	}
}

// DefaultLLMConfig returns sensible defaults for answering questions.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderGemini,
		Model:       DefaultModel(ProviderGemini),
		Temperature: 0, // model default
		MaxTokens:   1024,
	}
}

// ParseProvider normalizes a provider name.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderGemini, nil
	case ProviderGemini, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q (expected gemini|openai)", ErrInvalidConfig, name)
	}
}

// NewLLM builds the client for the configured provider.
func NewLLM(ctx context.Context, config LLMConfig) (LLM, error) {
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAILLM(config)
	case ProviderGemini, "":
		return NewGeminiLLM(ctx, config)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
}
