package ports

import (
	"context"
	"encoding/json"
)

// TokenUsage is the usage block reported by a completion provider
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Completion is a plain text answer
type Completion struct {
	Content string
	// Usage is nil when the provider did not report usage
	Usage *TokenUsage
}

// StructuredCompletion is the result of a schema constrained request
type StructuredCompletion struct {
	// Raw holds the JSON value produced by the model, or nil when the model
	// refused or returned nothing that parses as JSON
	Raw   json.RawMessage
	Usage *TokenUsage
}

// StructuredSchema describes the JSON shape requested from the model
type StructuredSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

// CompletionProvider is the model transport used by the tuning services
type CompletionProvider interface {
	// Complete sends instruction as the system message and input as the user message
	Complete(ctx context.Context, instruction, input string) (*Completion, error)
	// CompleteStructured sends each non-blank context line as a system message
	// and asks for a JSON value matching schema. An unusable answer is not an error.
	CompleteStructured(ctx context.Context, contextLines []string, schema StructuredSchema) (*StructuredCompletion, error)
}
