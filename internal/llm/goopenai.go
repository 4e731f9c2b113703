package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/longregen/prompttune/internal/adapters/retry"
)

// ProviderGoOpenAI is the name of the go-openai backend
const ProviderGoOpenAI = "go-openai"

// GoOpenAIBackend talks to any OpenAI-compatible endpoint through go-openai
type GoOpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	retryConfig retry.BackoffConfig
}

// NewGoOpenAIBackend expects the full API base URL (e.g. "https://api.openai.com/v1")
func NewGoOpenAIBackend(baseURL, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *GoOpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &GoOpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		retryConfig: retry.HTTPConfig(),
	}
}

func (b *GoOpenAIBackend) Name() string  { return ProviderGoOpenAI }
func (b *GoOpenAIBackend) Model() string { return b.model }

func (b *GoOpenAIBackend) ChatCompletion(ctx context.Context, chatReq ChatRequest) (*ChatResult, error) {
	msgs := make([]openai.ChatCompletionMessage, len(chatReq.Messages))
	for i, m := range chatReq.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	req := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}

	if f := chatReq.Format; f != nil && f.JSONSchema != nil {
		schema, err := json.Marshal(f.JSONSchema.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        f.JSONSchema.Name,
				Description: f.JSONSchema.Description,
				Schema:      json.RawMessage(schema),
				Strict:      f.JSONSchema.Strict,
			},
		}
	}

	var resp openai.ChatCompletionResponse
	err := retry.WithBackoffHTTP(ctx, b.retryConfig, func() (int, error) {
		var err error
		resp, err = b.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return apiStatus(err), err
		}
		return http.StatusOK, nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	choice := resp.Choices[0]
	return &ChatResult{
		Content:      choice.Message.Content,
		Refusal:      choice.Message.Refusal,
		FinishReason: string(choice.FinishReason),
		Usage: usageOf(
			int64(resp.Usage.PromptTokens),
			int64(resp.Usage.CompletionTokens),
			int64(resp.Usage.TotalTokens),
		),
	}, nil
}

// apiStatus extracts the HTTP status go-openai attached to err, or 0 for
// transport failures.
func apiStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
