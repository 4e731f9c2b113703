package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/ports"
)

func TestAnswerFetcher_FetchAnswers_IndexCorrelated(t *testing.T) {
	candidates := []string{"slow", "medium", "fast"}
	delays := map[string]time.Duration{
		"slow":   30 * time.Millisecond,
		"medium": 15 * time.Millisecond,
		"fast":   0,
	}

	provider := &funcProvider{complete: func(ctx context.Context, instruction, input string) (*ports.Completion, error) {
		time.Sleep(delays[instruction])
		return &ports.Completion{Content: "answer to " + input + " by " + instruction, Usage: usage(10)}, nil
	}}

	fetcher := NewAnswerFetcher(provider, 0)
	out, err := fetcher.FetchAnswers(context.Background(), candidates, "Summarize X")

	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	for i, r := range out.Results {
		assert.Equal(t, i, r.Position)
		assert.Equal(t, candidates[i], r.Prompt)
		assert.Equal(t, "answer to Summarize X by "+candidates[i], r.Answer)
	}
	assert.Equal(t, int64(30), out.TokensUsed)
}

func TestAnswerFetcher_FetchAnswers_MissingUsageCountsZero(t *testing.T) {
	provider := new(mockCompletionProvider)
	provider.On("Complete", mock.Anything, "a", "q").Return(&ports.Completion{Content: "A", Usage: usage(7)}, nil)
	provider.On("Complete", mock.Anything, "b", "q").Return(&ports.Completion{Content: "B"}, nil)

	fetcher := NewAnswerFetcher(provider, 2)
	out, err := fetcher.FetchAnswers(context.Background(), []string{"a", "b"}, "q")

	require.NoError(t, err)
	assert.Equal(t, int64(7), out.TokensUsed)
	assert.Equal(t, "B", out.Results[1].Answer)
	provider.AssertExpectations(t)
}

func TestAnswerFetcher_FetchAnswers_SplitUsageWithoutTotal(t *testing.T) {
	provider := new(mockCompletionProvider)
	provider.On("Complete", mock.Anything, "a", "q").Return(&ports.Completion{
		Content: "A",
		Usage:   &ports.TokenUsage{PromptTokens: 4, CompletionTokens: 6},
	}, nil)

	fetcher := NewAnswerFetcher(provider, 1)
	out, err := fetcher.FetchAnswers(context.Background(), []string{"a"}, "q")

	require.NoError(t, err)
	assert.Equal(t, int64(10), out.TokensUsed)
	provider.AssertExpectations(t)
}

func TestAnswerFetcher_FetchAnswers_AllOrNothing(t *testing.T) {
	provider := new(mockCompletionProvider)
	provider.On("Complete", mock.Anything, "ok", "q").Return(&ports.Completion{Content: "fine", Usage: usage(3)}, nil).Maybe()
	provider.On("Complete", mock.Anything, "bad", "q").Return(nil, errors.New("quota exceeded"))

	fetcher := NewAnswerFetcher(provider, 0)
	out, err := fetcher.FetchAnswers(context.Background(), []string{"ok", "bad", "ok"}, "q")

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrProviderFailed))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnswerFetcher_FetchAnswers_CancelsSiblingsOnFailure(t *testing.T) {
	provider := &funcProvider{complete: func(ctx context.Context, instruction, input string) (*ports.Completion, error) {
		if instruction == "fail" {
			return nil, errors.New("boom")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &ports.Completion{Content: "late"}, nil
		}
	}}

	fetcher := NewAnswerFetcher(provider, 0)

	start := time.Now()
	_, err := fetcher.FetchAnswers(context.Background(), []string{"hang", "fail", "hang"}, "q")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderFailed))
	assert.Less(t, time.Since(start), 2*time.Second, "siblings should be cancelled")
}

func TestAnswerFetcher_FetchAnswers_RunsConcurrently(t *testing.T) {
	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	provider := &funcProvider{complete: func(ctx context.Context, instruction, input string) (*ports.Completion, error) {
		started.Done()
		select {
		case <-allStarted:
			return &ports.Completion{Content: instruction}, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("calls were serialized")
		}
	}}

	fetcher := NewAnswerFetcher(provider, 0)
	out, err := fetcher.FetchAnswers(context.Background(), []string{"a", "b", "c", "d"}, "q")

	require.NoError(t, err)
	assert.Len(t, out.Results, n)
}

func TestAnswerFetcher_FetchAnswers_RespectsLimit(t *testing.T) {
	var inFlight, peak int32
	provider := &funcProvider{complete: func(ctx context.Context, instruction, input string) (*ports.Completion, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &ports.Completion{Content: instruction}, nil
	}}

	fetcher := NewAnswerFetcher(provider, 2)
	out, err := fetcher.FetchAnswers(context.Background(), []string{"a", "b", "c", "d", "e", "f"}, "q")

	require.NoError(t, err)
	assert.Len(t, out.Results, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestAnswerFetcher_FetchAnswers_NoCandidates(t *testing.T) {
	provider := new(mockCompletionProvider)

	fetcher := NewAnswerFetcher(provider, 0)
	out, err := fetcher.FetchAnswers(context.Background(), nil, "q")

	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Zero(t, out.TokensUsed)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}
