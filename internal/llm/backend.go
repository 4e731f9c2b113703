package llm

import (
	"context"

	"github.com/longregen/prompttune/internal/ports"
)

// Chat roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage represents a message in the OpenAI chat format
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a JSON value matching a schema
type ResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

type JSONSchemaFormat struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
	Strict      bool           `json:"strict"`
}

func jsonSchemaFormat(schema ports.StructuredSchema) *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchemaFormat{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      schema.Schema,
			Strict:      true,
		},
	}
}

// ChatRequest is a single non-streaming completion request
type ChatRequest struct {
	Messages []ChatMessage
	Format   *ResponseFormat
}

// ChatResult is the first choice of a completion plus its usage block
type ChatResult struct {
	Content      string
	Refusal      string
	FinishReason string
	// Usage is nil when the provider sent no usage block
	Usage *ports.TokenUsage
}

// Backend is a chat completion transport
type Backend interface {
	Name() string
	Model() string
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

func usageOf(prompt, completion, total int64) *ports.TokenUsage {
	if prompt == 0 && completion == 0 && total == 0 {
		return nil
	}
	return &ports.TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
