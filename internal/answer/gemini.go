package answer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiLLM implements the LLM interface using the Gemini API.
type GeminiLLM struct {
	client *genai.Client
	config LLMConfig
}

// NewGeminiLLM creates a Gemini-backed LLM implementation.
func NewGeminiLLM(ctx context.Context, config LLMConfig) (*GeminiLLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &GeminiLLM{
		client: client,
		config: config,
	}, nil
}

// Generate sends the prompt to Gemini and returns the generated text.
func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), g.generateConfig())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	return geminiText(resp)
}

// geminiText extracts the answer, treating filtered prompts and candidates
// as failures rather than empty answers.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("%w: %w: prompt blocked (%s)", ErrLLMFailed, ErrResponseBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return "", fmt.Errorf("%w: %w: finish reason %s", ErrLLMFailed, ErrResponseBlocked, reason)
	}

	return resp.Text(), nil
}

func (g *GeminiLLM) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if g.config.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.config.Temperature)
	}
	if g.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.config.MaxTokens)
	}
	return cfg
}
