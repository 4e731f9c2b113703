package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/longregen/prompttune/internal/adapters/metrics"
	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

const tracerName = "prompttune/services"

// AnswerFetcher runs each candidate instruction against the session query.
// Calls run concurrently, bounded by maxConcurrency when it is positive.
type AnswerFetcher struct {
	provider       ports.CompletionProvider
	maxConcurrency int
}

func NewAnswerFetcher(provider ports.CompletionProvider, maxConcurrency int) *AnswerFetcher {
	return &AnswerFetcher{
		provider:       provider,
		maxConcurrency: maxConcurrency,
	}
}

// FetchAnswers returns one result per candidate with Position equal to the
// candidate's index. If any call fails the whole batch fails and the
// remaining calls are cancelled.
func (f *AnswerFetcher) FetchAnswers(ctx context.Context, candidates []string, query string) (*ports.FetchAnswersResult, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "AnswerFetcher.FetchAnswers",
		trace.WithAttributes(tracing.CandidateCount(len(candidates))))
	defer span.End()

	if len(candidates) == 0 {
		return &ports.FetchAnswersResult{Results: []*models.PromptResult{}}, nil
	}

	start := time.Now()
	results := make([]*models.PromptResult, len(candidates))
	usage := make([]*ports.TokenUsage, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	if f.maxConcurrency > 0 {
		g.SetLimit(f.maxConcurrency)
	}

	for i, candidate := range candidates {
		g.Go(func() error {
			completion, err := f.provider.Complete(gCtx, candidate, query)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			if completion == nil {
				return fmt.Errorf("candidate %d: provider returned no completion", i)
			}
			results[i] = &models.PromptResult{
				Position: i,
				Prompt:   candidate,
				Answer:   completion.Content,
			}
			usage[i] = completion.Usage
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer fan-out failed")
		slog.ErrorContext(ctx, "answer fan-out failed", "candidates", len(candidates), "error", err)
		return nil, domain.ProviderError("fetch answers", err)
	}

	metrics.FanOutDuration.Observe(time.Since(start).Seconds())

	var tally TokenTally
	for _, u := range usage {
		tally.Add(u)
	}
	tokens := tally.Total()
	span.SetAttributes(tracing.TokensUsed(tokens))

	return &ports.FetchAnswersResult{
		Results:    results,
		TokensUsed: tokens,
	}, nil
}
