package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/ports"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []ChatRequest
	result   *ChatResult
	err      error
	wait     time.Duration
}

func (f *fakeBackend) Name() string  { return "fake" }
func (f *fakeBackend) Model() string { return "fake-model" }

func (f *fakeBackend) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func TestService_Complete(t *testing.T) {
	backend := &fakeBackend{result: &ChatResult{
		Content: "Paris",
		Usage:   &ports.TokenUsage{TotalTokens: 12},
	}}
	svc := NewService(backend, 0)

	completion, err := svc.Complete(context.Background(), "answer in one word", "capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris", completion.Content)
	assert.Equal(t, int64(12), completion.Usage.TotalTokens)

	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Nil(t, req.Format)
	assert.Equal(t, []ChatMessage{
		{Role: RoleSystem, Content: "answer in one word"},
		{Role: RoleUser, Content: "capital of France?"},
	}, req.Messages)
}

func TestService_CompleteStructured(t *testing.T) {
	backend := &fakeBackend{result: &ChatResult{Content: `{"prompts": ["a", "b"]}`}}
	svc := NewService(backend, 0)

	schema := ports.StructuredSchema{Name: "response", Schema: map[string]any{"type": "object"}}
	out, err := svc.CompleteStructured(context.Background(), []string{"meta", "  ", "", "seed"}, schema)
	require.NoError(t, err)

	assert.JSONEq(t, `{"prompts": ["a", "b"]}`, string(out.Raw))
	assert.Nil(t, out.Usage)

	req := backend.requests[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "meta", req.Messages[0].Content)
	assert.Equal(t, "seed", req.Messages[1].Content)
	for _, m := range req.Messages {
		assert.Equal(t, RoleSystem, m.Role)
	}
	require.NotNil(t, req.Format)
	assert.Equal(t, "response", req.Format.JSONSchema.Name)
}

func TestService_CompleteStructured_NoContext(t *testing.T) {
	svc := NewService(&fakeBackend{}, 0)
	_, err := svc.CompleteStructured(context.Background(), []string{" "}, ports.StructuredSchema{})
	assert.Error(t, err)
}

func TestService_CompleteStructured_Unusable(t *testing.T) {
	tests := []struct {
		name   string
		result *ChatResult
	}{
		{"refusal", &ChatResult{Refusal: "I can't help with that", Usage: &ports.TokenUsage{TotalTokens: 4}}},
		{"prose", &ChatResult{Content: "Sure! Here are some prompts.", Usage: &ports.TokenUsage{TotalTokens: 4}}},
		{"empty", &ChatResult{Usage: &ports.TokenUsage{TotalTokens: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeBackend{result: tt.result}, 0)
			out, err := svc.CompleteStructured(context.Background(), []string{"meta"}, ports.StructuredSchema{Name: "response"})
			require.NoError(t, err)
			assert.Nil(t, out.Raw)
			assert.Equal(t, int64(4), out.Usage.TotalTokens)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain object", `{"prompts": []}`, `{"prompts": []}`},
		{"fenced", "```json\n{\"prompts\": [\"x\"]}\n```", `{"prompts": ["x"]}`},
		{"wrapped in prose", `Here you go: {"prompts": ["x"]} enjoy`, `{"prompts": ["x"]}`},
		{"truncated", `{"prompts": ["x"`, ""},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := extractJSON(&ChatResult{Content: tt.content})
			if tt.want == "" {
				assert.Nil(t, raw)
				return
			}
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestService_BackendError(t *testing.T) {
	cause := errors.New("connection refused")
	svc := NewService(&fakeBackend{err: cause}, 0)

	_, err := svc.Complete(context.Background(), "i", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestService_Timeout(t *testing.T) {
	svc := NewService(&fakeBackend{wait: time.Second, result: &ChatResult{}}, 20*time.Millisecond)

	_, err := svc.Complete(context.Background(), "i", "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_CircuitOpens(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	svc := NewService(backend, 0)

	for i := 0; i < 5; i++ {
		_, err := svc.Complete(context.Background(), "i", "q")
		require.Error(t, err)
	}

	_, err := svc.Complete(context.Background(), "i", "q")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Len(t, backend.requests, 5)
}
