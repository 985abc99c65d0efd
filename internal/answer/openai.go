package answer

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openAISystemMessage keeps the assistant to the records placed in the prompt.
const openAISystemMessage = "You answer customer questions about a bank's policies. " +
	"Use only the records given in the user message."

const finishReasonContentFilter = "content_filter"

// OpenAILLM implements the LLM interface with chat completions.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM returns an OpenAI client for config. opts are appended after
// the API key, so tests can point it at a local server.
func NewOpenAILLM(config LLMConfig, opts ...option.RequestOption) (*OpenAILLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	client := openai.NewClient(
		append([]option.RequestOption{option.WithAPIKey(config.APIKey)}, opts...)...,
	)
	return &OpenAILLM{client: client, config: config}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	completion, err := o.client.Chat.Completions.New(ctx, o.params(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	return completionText(completion)
}

func (o *OpenAILLM) params(prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemMessage),
			openai.UserMessage(prompt),
		},
	}
	if o.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(o.config.Temperature))
	}
	if o.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.config.MaxTokens))
	}
	return params
}

// completionText reports refusals and filtered completions as failures.
func completionText(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}
	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: %w: %s", ErrLLMFailed, ErrResponseBlocked, choice.Message.Refusal)
	}
	if choice.FinishReason == finishReasonContentFilter {
		return "", fmt.Errorf("%w: %w: finish reason %s", ErrLLMFailed, ErrResponseBlocked, choice.FinishReason)
	}
	return choice.Message.Content, nil
}
