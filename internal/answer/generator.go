package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrGenerationFailed = errors.New("answer generation failed")
)

// NoAnswerText replaces an empty model response.
const NoAnswerText = "I'm unable to find an answer."

// Generator produces answers using an LLM.
// It invokes an LLM on an already-assembled prompt.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates an answer generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// Generate creates an answer by invoking the LLM with an already-assembled prompt.
// It must not perform retrieval or prompt construction.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Answer, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrGenerationFailed)
	}

	start := time.Now()
	text, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		text = NoAnswerText
	}

	return &Answer{
		Text:        text,
		GeneratedAt: time.Now(),
		Metadata: GenerationMetadata{
			Provider:    g.config.Provider,
			Model:       g.config.Model,
			Temperature: g.config.Temperature,
			MaxTokens:   g.config.MaxTokens,
			PromptChars: len(prompt),
			LatencyMS:   time.Since(start).Milliseconds(),
		},
	}, nil
}
