package answer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
// It returns predictable responses based on prompt content.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is generated from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// Empty makes Generate return an empty string with no error.
	Empty bool

	mu         sync.Mutex
	lastPrompt string
	calls      int
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.lastPrompt = prompt
	m.calls++
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Empty {
		return "", nil
	}
	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(prompt), nil
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// Calls returns how many times Generate was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// generateMockResponse echoes the question and counts the context lines.
func generateMockResponse(prompt string) string {
	question := "unknown"
	if idx := strings.LastIndex(prompt, questionMarker); idx >= 0 {
		rest := prompt[idx+len(questionMarker):]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[:nl]
		}
		question = strings.TrimSpace(rest)
	}

	return fmt.Sprintf("Mock answer to %q based on %d context lines.", question, countContextLines(prompt))
}

func countContextLines(prompt string) int {
	parts := strings.SplitN(prompt, "\n\n", 3)
	if len(parts) < 3 {
		return 0
	}
	count := 0
	for _, line := range strings.Split(parts[1], "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
