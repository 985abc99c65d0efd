package answer

import "time"

// GenerationMetadata captures model configuration and timing for an answer.
type GenerationMetadata struct {
	Provider    Provider `json:"provider"`
	Model       string   `json:"model"`
	Temperature float32  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	PromptChars int      `json:"prompt_chars"`
	LatencyMS   int64    `json:"latency_ms"`
}

// Answer is the model's reply to one question.
type Answer struct {
	// Text is the generated answer, or NoAnswerText when the model returned nothing
	Text string `json:"text"`

	// GeneratedAt is when this answer was produced
	GeneratedAt time.Time `json:"generated_at"`

	Metadata GenerationMetadata `json:"metadata"`
}
