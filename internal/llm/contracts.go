package llm

import "context"

// ChatRequest is a single chat-completion call to an Ollama-compatible endpoint.
type ChatRequest struct {
	Model  string
	Prompt string

	// Format, when non-nil, is a JSON schema the response must conform to
	// (Ollama structured outputs). Nil means free-form text.
	Format map[string]any

	Temperature float64
	MaxTokens   int
	Stop        []string
}

// ChatClient is the interface the processors depend on.
// Implementations own timeouts and transport concerns; callers treat any
// returned error as an extraction failure for that attempt.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
