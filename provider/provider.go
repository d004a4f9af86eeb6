package provider

import (
	"context"
	"fmt"
)

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// CompletionProvider is the minimal interface agents use to obtain text
// completions from an external AI service.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a lightweight in-memory CompletionProvider useful for
// tests and examples. Unregistered prompts get a deterministic echo.
type MockProvider struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockProvider constructs a MockProvider.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Fail makes every subsequent Complete call return err; pass nil to recover.
func (m *MockProvider) Fail(err error) { m.err = err }

// Complete implements CompletionProvider.
func (m *MockProvider) Complete(_ context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock completion for: %s", prompt), nil
}

// Info implements CompletionProvider.
func (m *MockProvider) Info() Info { return m.info }
