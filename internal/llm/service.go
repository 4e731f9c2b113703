package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/longregen/prompttune/internal/adapters/circuitbreaker"
	"github.com/longregen/prompttune/internal/adapters/metrics"
	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/ports"
)

const (
	// LLMTimeout is the maximum time to wait for LLM responses
	LLMTimeout = 2 * time.Minute

	kindPlain      = "plain"
	kindStructured = "structured"
)

var _ ports.CompletionProvider = (*Service)(nil)

// Service implements ports.CompletionProvider on top of a Backend
type Service struct {
	backend Backend
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewService creates a new LLM service. A zero timeout means LLMTimeout.
func NewService(backend Backend, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = LLMTimeout
	}
	return &Service{
		backend: backend,
		breaker: circuitbreaker.New("llm_"+backend.Name(), 5, 30*time.Second, // 5 failures, 30s timeout
			circuitbreaker.WithStateChange(recordBreakerState)),
		timeout: timeout,
	}
}

// Complete sends instruction as the system message and input as the user message
func (s *Service) Complete(ctx context.Context, instruction, input string) (*ports.Completion, error) {
	result, err := s.chat(ctx, kindPlain, ChatRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: instruction},
			{Role: RoleUser, Content: input},
		},
	})
	if err != nil {
		return nil, err
	}
	return &ports.Completion{Content: result.Content, Usage: result.Usage}, nil
}

// CompleteStructured sends every non-blank context line as its own system message
func (s *Service) CompleteStructured(ctx context.Context, contextLines []string, schema ports.StructuredSchema) (*ports.StructuredCompletion, error) {
	messages := make([]ChatMessage, 0, len(contextLines))
	for _, line := range contextLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: line})
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("structured completion needs at least one context line")
	}

	result, err := s.chat(ctx, kindStructured, ChatRequest{
		Messages: messages,
		Format:   jsonSchemaFormat(schema),
	})
	if err != nil {
		return nil, err
	}

	raw := extractJSON(result)
	if raw == nil {
		slog.WarnContext(ctx, "structured completion unusable",
			"provider", s.backend.Name(), "finish_reason", result.FinishReason, "refused", result.Refusal != "")
	}
	return &ports.StructuredCompletion{Raw: raw, Usage: result.Usage}, nil
}

func (s *Service) chat(ctx context.Context, kind string, req ChatRequest) (*ChatResult, error) {
	ctx, span := tracing.Tracer("prompttune/llm").Start(ctx, "llm.chat",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			tracing.LLMProvider(s.backend.Name()),
			tracing.LLMModel(s.backend.Model()),
		))
	defer span.End()

	start := time.Now()
	var result *ChatResult
	err := s.breaker.Execute(ctx, func() error {
		// Add timeout to prevent hanging on slow/failed LLM requests
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var err error
		result, err = s.backend.ChatCompletion(callCtx, req)
		return err
	})

	provider := s.backend.Name()
	metrics.LLMRequestDuration.WithLabelValues(provider, kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, kind, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("%s chat request failed: %w", kind, err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, kind, "ok").Inc()

	if u := result.Usage; u != nil {
		span.SetAttributes(
			tracing.LLMPromptTokens(u.PromptTokens),
			tracing.LLMCompletionTokens(u.CompletionTokens),
			tracing.LLMTotalTokens(u.TotalTokens),
		)
	}
	return result, nil
}

// extractJSON returns the JSON value in a structured answer, or nil when the
// model refused or produced nothing parseable.
func extractJSON(result *ChatResult) json.RawMessage {
	if result == nil || result.Refusal != "" {
		return nil
	}

	content := strings.TrimSpace(result.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if json.Valid([]byte(content)) {
		return json.RawMessage(content)
	}

	// Some models wrap the object in prose.
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil
	}
	if candidate := content[start : end+1]; json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate)
	}
	return nil
}

func recordBreakerState(name string, _, to circuitbreaker.State) {
	var v float64
	switch to {
	case circuitbreaker.StateHalfOpen:
		v = 1
	case circuitbreaker.StateOpen:
		v = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
	slog.Warn("circuit breaker state changed", "name", name, "state", to.String())
}

// CircuitState reports the provider breaker state ("closed", "open" or "half_open")
func (s *Service) CircuitState() string {
	return s.breaker.State().String()
}
