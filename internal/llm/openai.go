package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ProviderOpenAI is the name of the official SDK backend
const ProviderOpenAI = "openai"

// OpenAIBackend uses the official openai-go SDK, which retries on its own
type OpenAIBackend struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewOpenAIBackend(baseURL, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAIBackend{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (b *OpenAIBackend) Name() string  { return ProviderOpenAI }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) ChatCompletion(ctx context.Context, chatReq ChatRequest) (*ChatResult, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(chatReq.Messages))
	for _, m := range chatReq.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: msgs,
	}
	if b.maxTokens > 0 {
		params.MaxTokens = openai.Int(b.maxTokens)
	}
	if b.temperature > 0 {
		params.Temperature = openai.Float(b.temperature)
	}

	if f := chatReq.Format; f != nil && f.JSONSchema != nil {
		schema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   f.JSONSchema.Name,
			Schema: f.JSONSchema.Schema,
			Strict: openai.Bool(f.JSONSchema.Strict),
		}
		if f.JSONSchema.Description != "" {
			schema.Description = openai.String(f.JSONSchema.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		}
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
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
		FinishReason: choice.FinishReason,
		Usage:        usageOf(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens),
	}, nil
}
