package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/longregen/prompttune/internal/ports"
)

// Shared mock implementations for testing

type mockCompletionProvider struct {
	mock.Mock
}

func (m *mockCompletionProvider) Complete(ctx context.Context, instruction, input string) (*ports.Completion, error) {
	args := m.Called(ctx, instruction, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Completion), args.Error(1)
}

func (m *mockCompletionProvider) CompleteStructured(ctx context.Context, contextLines []string, schema ports.StructuredSchema) (*ports.StructuredCompletion, error) {
	args := m.Called(ctx, contextLines, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.StructuredCompletion), args.Error(1)
}

// funcProvider lets a test control timing of each call.
type funcProvider struct {
	complete func(ctx context.Context, instruction, input string) (*ports.Completion, error)
}

func (f *funcProvider) Complete(ctx context.Context, instruction, input string) (*ports.Completion, error) {
	return f.complete(ctx, instruction, input)
}

func (f *funcProvider) CompleteStructured(ctx context.Context, contextLines []string, schema ports.StructuredSchema) (*ports.StructuredCompletion, error) {
	return nil, nil
}

func usage(total int64) *ports.TokenUsage {
	return &ports.TokenUsage{TotalTokens: total}
}
